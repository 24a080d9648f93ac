package models

// ModelRegistry lists every model owned by the service, in migration order.
var ModelRegistry = []interface{}{
	&WaitlistEntry{},
}
