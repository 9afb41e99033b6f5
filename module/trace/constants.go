package trace

// SpanName is the name of a traced operation.
type SpanName string

const (
	// VM
	VMExecuteBlock          SpanName = "vm.executeBlock"
	VMExecuteTransaction    SpanName = "vm.executeTransaction"
	VMExecuteSystemTx       SpanName = "vm.executeSystemTransaction"
	VMValidateTransaction   SpanName = "vm.validateTransaction"
	VMVerifyTransaction     SpanName = "vm.verifyTransaction"
	VMSeqNumCheck           SpanName = "vm.checkSequenceNumber"
	VMPayerBalanceCheck     SpanName = "vm.checkPayerBalance"
	VMLoadTransaction       SpanName = "vm.loadTransaction"
	VMInvokeTransaction     SpanName = "vm.invokeTransaction"
	VMDeductTransactionFees SpanName = "vm.deductTransactionFees"
)
