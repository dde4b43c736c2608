package kvdbtypes

// KVDBEngine defines the interface of a KVDB engine implementation
//
// Get returns "" with a nil error when the key does not exist.
type KVDBEngine interface {
	Get(key string) (val string, err error)
	Put(key string, val string) (err error)
	Del(key string) (err error)
	Close()
	IsConnectionError(err error) bool
}
