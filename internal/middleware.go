package internal

import (
	"time"

	"github.com/derWhity/mitbringsel/internal/log"
	"github.com/go-kit/kit/endpoint"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// LogRequest is a middleware that writes an access log entry for every call to the
// wrapped endpoint. Failed requests get logged by the error encoder with more detail,
// so a Debug entry is enough here
func LogRequest(name string, logger *logrus.Entry) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			began := time.Now()
			response, err = next(ctx, request)
			logger.WithFields(logrus.Fields{
				log.FldEndpoint: name,
				log.FldDuration: time.Since(began),
			}).Debug("Request handled")
			return response, err
		}
	}
}
