package vm

// Event is a payload emitted by bytecode during a successful transaction.
type Event struct {
	TransactionID Identifier
	EventIndex    uint32
	Emitter       Address
	Key           []byte
	Payload       []byte
}
