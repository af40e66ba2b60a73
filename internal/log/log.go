package log

const (
	// FldFile is the name of the log field for storing file name information
	FldFile = "file"
	// FldPath is the name of the log field for storing path name information
	FldPath = "path"
	// FldTransport is the name of the log field for storing a transport name
	FldTransport = "transport"
	// FldVersion is the version number of the application
	FldVersion = "ver"
	// FldEvent is the public ID of the event an operation works on
	FldEvent = "event"
	// FldItem is the ID of the item an operation works on
	FldItem = "item"
	// FldEndpoint is the name of the endpoint handling the current request
	FldEndpoint = "endpoint"
	// FldDuration is the time a request took to handle
	FldDuration = "took"
	// FldStatus is the HTTP status code sent for a request
	FldStatus = "status"
	// FldErrorCode is the machine-readable code of an error
	FldErrorCode = "errorCode"
)
