package fvm_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/onflow/vm-runtime/config"
	"github.com/onflow/vm-runtime/fvm"
	"github.com/onflow/vm-runtime/fvm/bytecode"
	bytecodeMock "github.com/onflow/vm-runtime/fvm/bytecode/mock"
	"github.com/onflow/vm-runtime/fvm/errors"
	"github.com/onflow/vm-runtime/fvm/meter"
	"github.com/onflow/vm-runtime/fvm/storage"
	"github.com/onflow/vm-runtime/model/vm"
	"github.com/onflow/vm-runtime/utils/unittest"
)

const initialBalance = 1_000_000

type vmTest struct {
	vm       *fvm.VirtualMachine
	ctx      fvm.Context
	snapshot storage.MapStorageSnapshot

	alice unittest.TestAccount
	bob   unittest.TestAccount
}

func newVMTest(t *testing.T, opts ...fvm.Option) *vmTest {
	test := &vmTest{
		vm:       fvm.NewVirtualMachine(),
		snapshot: storage.MapStorageSnapshot{},
		alice:    unittest.NewTestAccount("alice"),
		bob:      unittest.NewTestAccount("bob"),
	}
	test.ctx = fvm.NewContext(append([]fvm.Option{fvm.WithLogger(unittest.Logger())}, opts...)...)

	unittest.AddAccount(t, test.snapshot, test.alice, initialBalance, 0)
	unittest.AddAccount(t, test.snapshot, test.bob, initialBalance, 0)
	return test
}

func (test *vmTest) executeBlock(t *testing.T, txs ...vm.Transaction) []*fvm.TransactionOutput {
	outputs, err := test.vm.ExecuteBlock(test.ctx, txs, test.snapshot)
	require.NoError(t, err)
	require.Len(t, outputs, len(txs))
	return outputs
}

func (test *vmTest) execute(t *testing.T, tx vm.Transaction) *fvm.TransactionOutput {
	return test.executeBlock(t, tx)[0]
}

func requireDiscarded(t *testing.T, output *fvm.TransactionOutput, code errors.ErrorCode) {
	t.Helper()
	require.Equal(t, fvm.DispositionDiscard, output.Disposition)
	require.NotNil(t, output.Err)
	require.Equal(t, code, output.Err.Code(), output.Err.Error())
	require.Zero(t, output.GasUsed)
	require.Empty(t, output.WriteSet)
	require.Empty(t, output.Events)
}

func requireFailed(t *testing.T, output *fvm.TransactionOutput, code errors.ErrorCode, maxGas uint64) {
	t.Helper()
	require.Equal(t, fvm.DispositionKeep, output.Disposition)
	require.NotNil(t, output.Err)
	require.Equal(t, code, output.Err.Code(), output.Err.Error())
	require.Positive(t, output.GasUsed)
	require.LessOrEqual(t, output.GasUsed, maxGas)
	require.Empty(t, output.WriteSet)
	require.Empty(t, output.Events)
}

func requireExecuted(t *testing.T, output *fvm.TransactionOutput) {
	t.Helper()
	if output.Err != nil {
		require.FailNow(t, "transaction failed", output.Err.Error())
	}
	require.Equal(t, fvm.DispositionKeep, output.Disposition)
	require.True(t, output.Executed())
}

func intrinsicGas(t *testing.T, tx *vm.UserTransaction) uint64 {
	size, err := tx.Size()
	require.NoError(t, err)
	gas, ok := meter.DefaultCostTable().IntrinsicGas(size)
	require.True(t, ok)
	return gas
}

func accountWrite(t *testing.T, account vm.Account) vm.WriteOp {
	encoded, err := vm.EncodeAccount(account)
	require.NoError(t, err)
	return vm.Write(encoded)
}

func TestExecuteBlock_Success(t *testing.T) {

	t.Run("noop script pays for intrinsic gas and one instruction", func(t *testing.T) {
		test := newVMTest(t)
		tx := unittest.TransactionFixture(t, test.alice, 0, unittest.ScriptPayload(t, unittest.NoopScriptFixture()))

		output := test.execute(t, tx)
		requireExecuted(t, output)

		gas := intrinsicGas(t, tx) + meter.DefaultCostTable().Instruction
		require.Equal(t, gas, output.GasUsed)

		expected := vm.NewWriteSet(map[vm.AccessPath]vm.WriteOp{
			vm.AccountResourcePath(test.alice.Address): accountWrite(t, test.alice.Resource(initialBalance-gas, 1)),
		})
		if diff := cmp.Diff(expected, output.WriteSet); diff != "" {
			t.Fatalf("unexpected write set (-want +got):\n%s", diff)
		}
	})

	t.Run("writes and events are materialized", func(t *testing.T) {
		test := newVMTest(t)
		tx := unittest.TransactionFixture(
			t,
			test.alice,
			0,
			unittest.ScriptPayload(t, unittest.WriteScriptFixture([]byte("key"), []byte("value"))),
			unittest.WithGasUnitPrice(3))

		output := test.execute(t, tx)
		requireExecuted(t, output)
		require.LessOrEqual(t, output.GasUsed, tx.MaxGasAmount)

		expected := vm.NewWriteSet(map[vm.AccessPath]vm.WriteOp{
			vm.AccountResourcePath(test.alice.Address): accountWrite(t, test.alice.Resource(initialBalance-3*output.GasUsed, 1)),
			vm.DataPath(test.alice.Address, []byte("key")): vm.Write([]byte("value")),
		})
		if diff := cmp.Diff(expected, output.WriteSet); diff != "" {
			t.Fatalf("unexpected write set (-want +got):\n%s", diff)
		}

		id, err := tx.ID()
		require.NoError(t, err)
		require.Equal(t, []vm.Event{{
			TransactionID: id,
			EventIndex:    0,
			Emitter:       test.alice.Address,
			Key:           []byte("key"),
			Payload:       []byte("value"),
		}}, output.Events)
	})

	t.Run("transfer updates both accounts", func(t *testing.T) {
		test := newVMTest(t)
		tx := unittest.TransactionFixture(
			t,
			test.alice,
			0,
			unittest.ScriptPayload(
				t,
				unittest.TransferScriptFixture(),
				vm.AddressArgument(test.bob.Address),
				vm.U64Argument(500)))

		output := test.execute(t, tx)
		requireExecuted(t, output)

		expected := vm.NewWriteSet(map[vm.AccessPath]vm.WriteOp{
			vm.AccountResourcePath(test.alice.Address): accountWrite(t, test.alice.Resource(initialBalance-500-output.GasUsed, 1)),
			vm.AccountResourcePath(test.bob.Address):   accountWrite(t, test.bob.Resource(initialBalance+500, 0)),
		})
		if diff := cmp.Diff(expected, output.WriteSet); diff != "" {
			t.Fatalf("unexpected write set (-want +got):\n%s", diff)
		}
	})

	t.Run("module publication writes the code", func(t *testing.T) {
		test := newVMTest(t)
		module := unittest.MathModuleFixture(test.alice.Address)
		code := unittest.ModuleCode(t, module)
		tx := unittest.TransactionFixture(t, test.alice, 0, vm.ModulePayload(code))

		output := test.execute(t, tx)
		requireExecuted(t, output)

		table := meter.DefaultCostTable()
		path := vm.ModuleCodePath(module.ID())
		gas := intrinsicGas(t, tx) +
			uint64(len(code))*table.ModuleLoadByte +
			table.StateWrite +
			(path.Size()+uint64(len(code)))*table.StateWriteByte
		require.Equal(t, gas, output.GasUsed)

		op, ok := output.WriteSet.Get(path)
		require.True(t, ok)
		require.Equal(t, code, op.Value)
	})
}

func TestExecuteBlock_ValidationFailures(t *testing.T) {

	t.Run("invalid signature", func(t *testing.T) {
		test := newVMTest(t)
		tx := unittest.TransactionFixture(t, test.alice, 0, unittest.ScriptPayload(t, unittest.NoopScriptFixture()))
		tx.Signature = append([]byte{}, tx.Signature...)
		tx.Signature[len(tx.Signature)-1] ^= 0xff

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeInvalidSignature)
	})

	t.Run("signature checks can be disabled", func(t *testing.T) {
		test := newVMTest(t, fvm.WithSignatureVerificationEnabled(false))
		tx := unittest.TransactionFixture(t, test.alice, 0, unittest.ScriptPayload(t, unittest.NoopScriptFixture()))
		tx.Signature = nil

		requireExecuted(t, test.execute(t, tx))
	})

	t.Run("unknown sender", func(t *testing.T) {
		test := newVMTest(t)
		carol := unittest.NewTestAccount("carol")
		tx := unittest.TransactionFixture(t, carol, 0, unittest.ScriptPayload(t, unittest.NoopScriptFixture()))

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeSenderAccountDoesNotExist)
	})

	t.Run("key does not match the account", func(t *testing.T) {
		test := newVMTest(t)
		impostor := unittest.TestAccount{
			Address: test.alice.Address,
			Key:     test.bob.Key,
		}
		tx := unittest.TransactionFixture(t, impostor, 0, unittest.ScriptPayload(t, unittest.NoopScriptFixture()))

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeInvalidAuthKey)
	})

	t.Run("sequence number too old", func(t *testing.T) {
		test := newVMTest(t)
		unittest.AddAccount(t, test.snapshot, test.alice, initialBalance, 5)
		tx := unittest.TransactionFixture(t, test.alice, 4, unittest.ScriptPayload(t, unittest.NoopScriptFixture()))

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeSequenceNumberTooOld)
	})

	t.Run("sequence number too new", func(t *testing.T) {
		test := newVMTest(t)
		tx := unittest.TransactionFixture(t, test.alice, 1, unittest.ScriptPayload(t, unittest.NoopScriptFixture()))

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeSequenceNumberTooNew)
	})

	t.Run("insufficient balance for the gas budget", func(t *testing.T) {
		test := newVMTest(t)
		unittest.AddAccount(t, test.snapshot, test.alice, unittest.DefaultMaxGasAmount-1, 0)
		tx := unittest.TransactionFixture(t, test.alice, 0, unittest.ScriptPayload(t, unittest.NoopScriptFixture()))

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeInsufficientBalanceForTransactionFee)
	})

	t.Run("expired", func(t *testing.T) {
		test := newVMTest(t, fvm.WithBlockTime(100))
		tx := unittest.TransactionFixture(
			t,
			test.alice,
			0,
			unittest.ScriptPayload(t, unittest.NoopScriptFixture()),
			unittest.WithExpirationTime(100))

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeTransactionExpired)
	})

	t.Run("transaction too large", func(t *testing.T) {
		vmConfig := config.DefaultVMConfig()
		vmConfig.MaxTransactionSizeBytes = 64
		test := newVMTest(t, fvm.WithVMConfig(vmConfig))
		tx := unittest.TransactionFixture(t, test.alice, 0, unittest.ScriptPayload(t, unittest.NoopScriptFixture()))

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeTransactionSizeExceeded)
	})

	t.Run("gas budget above the limit", func(t *testing.T) {
		test := newVMTest(t)
		tx := unittest.TransactionFixture(
			t,
			test.alice,
			0,
			unittest.ScriptPayload(t, unittest.NoopScriptFixture()),
			unittest.WithMaxGasAmount(config.DefaultMaxGasAmount+1))

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeMaxGasAmountExceedsLimit)
	})

	t.Run("gas budget below intrinsic gas", func(t *testing.T) {
		test := newVMTest(t)
		tx := unittest.TransactionFixture(
			t,
			test.alice,
			0,
			unittest.ScriptPayload(t, unittest.NoopScriptFixture()),
			unittest.WithMaxGasAmount(10))

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeMaxGasAmountBelowIntrinsicGas)
	})

	t.Run("gas unit price above the limit", func(t *testing.T) {
		test := newVMTest(t)
		tx := unittest.TransactionFixture(
			t,
			test.alice,
			0,
			unittest.ScriptPayload(t, unittest.NoopScriptFixture()),
			unittest.WithGasUnitPrice(config.DefaultMaxGasUnitPrice+1))

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeGasUnitPriceAboveMax)
	})

	t.Run("payload with both script and module", func(t *testing.T) {
		test := newVMTest(t)
		payload := unittest.ScriptPayload(t, unittest.NoopScriptFixture())
		payload.Module = &vm.Module{Code: unittest.ModuleCode(t, unittest.MathModuleFixture(test.alice.Address))}
		tx := unittest.TransactionFixture(t, test.alice, 0, payload)

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeMalformedPayload)
	})
}

func TestExecuteBlock_VerificationFailures(t *testing.T) {

	t.Run("script fails bytecode verification", func(t *testing.T) {
		test := newVMTest(t)
		tx := unittest.TransactionFixture(t, test.alice, 0, unittest.ScriptPayload(t, unittest.InvalidScriptFixture()))

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeBytecodeVerification)
	})

	t.Run("script is not bytecode", func(t *testing.T) {
		test := newVMTest(t)
		tx := unittest.TransactionFixture(t, test.alice, 0, vm.ScriptPayload([]byte("garbage")))

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeCodeDeserialization)
	})

	t.Run("arguments do not match main", func(t *testing.T) {
		test := newVMTest(t)
		tx := unittest.TransactionFixture(
			t,
			test.alice,
			0,
			unittest.ScriptPayload(
				t,
				unittest.TransferScriptFixture(),
				vm.U64Argument(500),
				vm.AddressArgument(test.bob.Address)))

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeArgumentTypeMismatch)
	})

	t.Run("missing import", func(t *testing.T) {
		test := newVMTest(t)
		tx := unittest.TransactionFixture(
			t,
			test.alice,
			0,
			unittest.ScriptPayload(t, unittest.CallDoubleScriptFixture(test.bob.Address, 21, 42)))

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeModuleNotFound)
	})

	t.Run("module published under another address", func(t *testing.T) {
		test := newVMTest(t)
		tx := unittest.TransactionFixture(
			t,
			test.alice,
			0,
			unittest.ModulePayload(t, unittest.MathModuleFixture(test.bob.Address)))

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeModuleAddressMismatch)
	})

	t.Run("module already published", func(t *testing.T) {
		test := newVMTest(t)
		module := unittest.MathModuleFixture(test.alice.Address)
		unittest.AddModule(t, test.snapshot, module)
		tx := unittest.TransactionFixture(t, test.alice, 0, unittest.ModulePayload(t, module))

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeDuplicateModuleName)
	})
}

func TestExecuteBlock_ExecutionFailures(t *testing.T) {

	t.Run("abort keeps the transaction and drops its writes", func(t *testing.T) {
		test := newVMTest(t)
		tx := unittest.TransactionFixture(t, test.alice, 0, unittest.ScriptPayload(t, unittest.AbortScriptFixture(7)))

		output := test.execute(t, tx)
		requireFailed(t, output, errors.ErrCodeAborted, tx.MaxGasAmount)
		require.Greater(t, output.GasUsed, intrinsicGas(t, tx)+config.DefaultFailureSurcharge)
	})

	t.Run("out of gas is charged the whole budget", func(t *testing.T) {
		test := newVMTest(t)
		tx := unittest.TransactionFixture(
			t,
			test.alice,
			0,
			unittest.ScriptPayload(t, unittest.InfiniteLoopScriptFixture()),
			unittest.WithMaxGasAmount(10_000))

		output := test.execute(t, tx)
		requireFailed(t, output, errors.ErrCodeOutOfGas, tx.MaxGasAmount)
		require.Equal(t, tx.MaxGasAmount, output.GasUsed)
	})

	t.Run("call stack overflow", func(t *testing.T) {
		test := newVMTest(t)
		unittest.AddModule(t, test.snapshot, unittest.RecursionModuleFixture(test.bob.Address))
		tx := unittest.TransactionFixture(
			t,
			test.alice,
			0,
			unittest.ScriptPayload(t, unittest.RecursionScriptFixture(test.bob.Address)))

		requireFailed(t, test.execute(t, tx), errors.ErrCodeCallStackOverflow, tx.MaxGasAmount)
	})

	t.Run("failed module publication is not committed", func(t *testing.T) {
		test := newVMTest(t)
		module := unittest.MathModuleFixture(test.alice.Address)
		unlimited := unittest.TransactionFixture(t, test.alice, 0, unittest.ModulePayload(t, module))
		// enough for admission but not for loading the module
		publish := unittest.TransactionFixture(
			t,
			test.alice,
			0,
			unittest.ModulePayload(t, module),
			unittest.WithMaxGasAmount(intrinsicGas(t, unlimited)+32))
		call := unittest.TransactionFixture(
			t,
			test.bob,
			0,
			unittest.ScriptPayload(t, unittest.CallDoubleScriptFixture(test.alice.Address, 21, 42)))

		outputs := test.executeBlock(t, publish, call)
		requireFailed(t, outputs[0], errors.ErrCodeOutOfGas, publish.MaxGasAmount)
		requireDiscarded(t, outputs[1], errors.ErrCodeModuleNotFound)
	})

	t.Run("fee deduction failure", func(t *testing.T) {
		test := newVMTest(t)
		tx := unittest.TransactionFixture(
			t,
			test.alice,
			0,
			unittest.ScriptPayload(
				t,
				unittest.TransferScriptFixture(),
				vm.AddressArgument(test.bob.Address),
				vm.U64Argument(initialBalance-1)))

		requireFailed(t, test.execute(t, tx), errors.ErrCodeFeeDeductionFailed, tx.MaxGasAmount)
	})

	t.Run("prologue never keeps a transaction uncharged", func(t *testing.T) {
		vmConfig := config.DefaultVMConfig()
		vmConfig.MaxKeySize = vm.AddressLength + 1
		test := newVMTest(t, fvm.WithVMConfig(vmConfig))
		tx := unittest.TransactionFixture(t, test.alice, 0, unittest.ScriptPayload(t, unittest.NoopScriptFixture()))

		outputs, err := test.vm.ExecuteBlock(test.ctx, []vm.Transaction{tx}, test.snapshot)
		require.Nil(t, outputs)
		require.True(t, errors.IsFailure(err))
		require.True(t, errors.HasErrorCode(err, errors.FailureCodeInvariantViolation))

		status := test.vm.ValidateTransaction(test.ctx, tx, test.snapshot)
		require.True(t, errors.IsFailure(status))

		statuses := test.vm.ValidateTransactions(test.ctx, []vm.Transaction{tx, tx}, test.snapshot)
		require.Len(t, statuses, 2)
		for _, status := range statuses {
			require.True(t, errors.IsFailure(status))
		}
	})
}

func TestExecuteBlock_IntraBlockVisibility(t *testing.T) {
	test := newVMTest(t)
	module := unittest.MathModuleFixture(test.alice.Address)

	publish := unittest.TransactionFixture(t, test.alice, 0, unittest.ModulePayload(t, module))
	call := unittest.TransactionFixture(
		t,
		test.bob,
		0,
		unittest.ScriptPayload(t, unittest.CallDoubleScriptFixture(test.alice.Address, 21, 42)))
	// the sequence number bump of publish is not visible, so 0 is still
	// expected
	again := unittest.TransactionFixture(t, test.alice, 0, unittest.ScriptPayload(t, unittest.NoopScriptFixture()))

	outputs := test.executeBlock(t, publish, call, again)
	requireExecuted(t, outputs[0])
	requireExecuted(t, outputs[1])
	requireExecuted(t, outputs[2])

	t.Run("a new block does not see unapplied publications", func(t *testing.T) {
		requireDiscarded(t, test.execute(t, call), errors.ErrCodeModuleNotFound)
	})

	t.Run("applying the write sets makes the module visible", func(t *testing.T) {
		test.snapshot = test.snapshot.ApplyWriteSets(outputs[0].WriteSet)
		requireExecuted(t, test.execute(t, call))
	})
}

func TestExecuteBlock_VerifiesModulesOncePerBlock(t *testing.T) {
	verifier := bytecodeMock.NewVerifier(t)
	base := bytecode.NewDefaultVerifier()
	verifier.
		On("VerifyModule", mock.Anything).
		Return(func(m *bytecode.CompiledModule) error { return base.VerifyModule(m) })
	verifier.
		On("VerifyScript", mock.Anything).
		Return(func(s *bytecode.CompiledScript) error { return base.VerifyScript(s) })

	test := newVMTest(t, fvm.WithVerifier(verifier))
	carol := unittest.NewTestAccount("carol")
	unittest.AddModule(t, test.snapshot, unittest.MathModuleFixture(carol.Address))

	first := unittest.TransactionFixture(
		t,
		test.alice,
		0,
		unittest.ScriptPayload(t, unittest.CallDoubleScriptFixture(carol.Address, 21, 42)))
	second := unittest.TransactionFixture(
		t,
		test.bob,
		0,
		unittest.ScriptPayload(t, unittest.CallDoubleScriptFixture(carol.Address, 2, 4)))

	outputs := test.executeBlock(t, first, second)
	requireExecuted(t, outputs[0])
	requireExecuted(t, outputs[1])

	verifier.AssertNumberOfCalls(t, "VerifyModule", 1)
	verifier.AssertNumberOfCalls(t, "VerifyScript", 2)

	test.executeBlock(t, first)
	verifier.AssertNumberOfCalls(t, "VerifyModule", 2)
}

func TestExecuteBlock_SystemTransactions(t *testing.T) {

	t.Run("block metadata", func(t *testing.T) {
		test := newVMTest(t)
		md := &vm.BlockMetadata{Height: 10, Timestamp: 1_000, Proposer: test.bob.Address}
		expiring := unittest.TransactionFixture(
			t,
			test.alice,
			0,
			unittest.ScriptPayload(t, unittest.NoopScriptFixture()),
			unittest.WithExpirationTime(1_000))

		outputs := test.executeBlock(t, expiring, vm.NewSystemTransaction(md), expiring)
		requireExecuted(t, outputs[0])

		requireExecuted(t, outputs[1])
		require.Zero(t, outputs[1].GasUsed)
		op, ok := outputs[1].WriteSet.Get(vm.BlockMetadataPath())
		require.True(t, ok)
		decoded, err := vm.DecodeBlockMetadata(op.Value)
		require.NoError(t, err)
		require.Equal(t, *md, decoded)

		requireDiscarded(t, outputs[2], errors.ErrCodeTransactionExpired)
	})

	t.Run("write set", func(t *testing.T) {
		test := newVMTest(t)
		path := vm.DataPath(test.alice.Address, []byte("genesis"))
		tx := vm.NewSystemTransaction(&vm.WriteSetPayload{
			WriteSet: vm.WriteSet{
				{Path: vm.AccountResourcePath(test.bob.Address), Op: vm.Delete()},
				{Path: path, Op: vm.Write([]byte("value"))},
			},
		})

		output := test.execute(t, tx)
		requireExecuted(t, output)
		require.Zero(t, output.GasUsed)
		require.Len(t, output.WriteSet, 2)
		op, ok := output.WriteSet.Get(path)
		require.True(t, ok)
		require.Equal(t, []byte("value"), op.Value)
	})

	t.Run("write set with duplicate paths", func(t *testing.T) {
		test := newVMTest(t)
		path := vm.DataPath(test.alice.Address, []byte("genesis"))
		tx := vm.NewSystemTransaction(&vm.WriteSetPayload{
			WriteSet: vm.WriteSet{
				{Path: path, Op: vm.Write([]byte("a"))},
				{Path: path, Op: vm.Write([]byte("b"))},
			},
		})

		requireDiscarded(t, test.execute(t, tx), errors.ErrCodeInvalidWriteSet)
	})

	t.Run("system transactions are not admissible", func(t *testing.T) {
		test := newVMTest(t)
		status := test.vm.ValidateTransaction(
			test.ctx,
			vm.NewSystemTransaction(&vm.BlockMetadata{Height: 1}),
			test.snapshot)
		require.NotNil(t, status)
		require.Equal(t, errors.ErrCodeSystemTransactionNotAdmissible, status.Code())
	})
}

func TestValidateTransaction_AgreesWithExecuteBlock(t *testing.T) {
	test := newVMTest(t, fvm.WithBlockTime(100))

	noop := unittest.ScriptPayload(t, unittest.NoopScriptFixture())
	badSignature := unittest.TransactionFixture(t, test.alice, 0, noop)
	badSignature.Signature = append([]byte{}, badSignature.Signature...)
	badSignature.Signature[len(badSignature.Signature)-1] ^= 0xff

	txs := map[string]*vm.UserTransaction{
		"valid":         unittest.TransactionFixture(t, test.alice, 0, noop),
		"bad signature": badSignature,
		"too new":       unittest.TransactionFixture(t, test.alice, 3, noop),
		"expired":       unittest.TransactionFixture(t, test.alice, 0, noop, unittest.WithExpirationTime(50)),
		"too expensive": unittest.TransactionFixture(t, test.bob, 0, noop, unittest.WithGasUnitPrice(100)),
		"unknown":       unittest.TransactionFixture(t, unittest.NewTestAccount("carol"), 0, noop),
		// validation does not load code
		"bad bytecode": unittest.TransactionFixture(t, test.alice, 0, unittest.ScriptPayload(t, unittest.InvalidScriptFixture())),
	}

	for name, tx := range txs {
		tx := tx
		t.Run(name, func(t *testing.T) {
			status := test.vm.ValidateTransaction(test.ctx, tx, test.snapshot)
			output := test.execute(t, tx)

			if status == nil {
				require.NotEqual(t, errors.FamilyValidation, familyOf(output))
				return
			}
			require.Equal(t, errors.FamilyValidation, status.Code().Family())
			requireDiscarded(t, output, status.Code())
		})
	}

	t.Run("batch", func(t *testing.T) {
		batch := []vm.Transaction{txs["valid"], txs["bad signature"], txs["too new"], txs["bad bytecode"]}
		statuses := test.vm.ValidateTransactions(test.ctx, batch, test.snapshot)
		require.Len(t, statuses, len(batch))
		require.Nil(t, statuses[0])
		require.Equal(t, errors.ErrCodeInvalidSignature, statuses[1].Code())
		require.Equal(t, errors.ErrCodeSequenceNumberTooNew, statuses[2].Code())
		require.Nil(t, statuses[3])

		validated, rejected := test.vm.ValidationStats()
		require.GreaterOrEqual(t, validated, uint64(len(batch)))
		require.GreaterOrEqual(t, rejected, uint64(2))
	})
}

func familyOf(output *fvm.TransactionOutput) errors.Family {
	if output.Err == nil {
		return errors.FamilyUnknown
	}
	return output.Err.Code().Family()
}
