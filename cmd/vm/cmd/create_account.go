package cmd

import (
	"encoding/hex"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/onflow/vm-runtime/fvm"
	"github.com/onflow/vm-runtime/fvm/crypto"
	"github.com/onflow/vm-runtime/model/vm"
	bstorage "github.com/onflow/vm-runtime/storage/badger"
)

var (
	flagAddress   string
	flagPublicKey string
	flagBalance   uint64
)

func init() {
	rootCmd.AddCommand(createAccountCmd)

	createAccountCmd.Flags().StringVar(&flagAddress, "address", "", "hex address of the account")
	_ = createAccountCmd.MarkFlagRequired("address")
	createAccountCmd.Flags().StringVar(&flagPublicKey, "public-key", "", "hex compressed secp256k1 public key")
	_ = createAccountCmd.MarkFlagRequired("public-key")
	createAccountCmd.Flags().Uint64Var(&flagBalance, "balance", 0, "initial balance")
}

// createAccountCmd writes an account through a write set system transaction,
// the way genesis accounts are created.
var createAccountCmd = &cobra.Command{
	Use:   "create-account",
	Short: "create an account in the local state",
	Run: func(cmd *cobra.Command, args []string) {
		address := vm.HexToAddress(flagAddress)
		if address == vm.EmptyAddress {
			log.Fatal().Str("address", flagAddress).Msg("invalid address")
		}
		publicKey, err := hex.DecodeString(flagPublicKey)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid public key")
		}

		account, err := vm.EncodeAccount(vm.Account{
			Balance: flagBalance,
			AuthKey: crypto.AuthKey(publicKey),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("could not encode account")
		}

		db, closeDB := initDB()
		defer closeDB()
		state := bstorage.NewState(db)

		ctx, stop := initContext()
		defer stop()

		tx := vm.NewSystemTransaction(&vm.WriteSetPayload{
			WriteSet: vm.WriteSet{{
				Path: vm.AccountResourcePath(address),
				Op:   vm.Write(account),
			}},
		})
		outputs, err := fvm.NewVirtualMachine().ExecuteBlock(ctx, []vm.Transaction{tx}, state)
		if err != nil {
			log.Fatal().Err(err).Msg("could not execute write set")
		}
		if !outputs[0].Executed() {
			log.Fatal().Err(outputs[0].Err).Msg("write set rejected")
		}

		err = state.Commit(outputs[0].WriteSet)
		if err != nil {
			log.Fatal().Err(err).Msg("could not commit account")
		}
		log.Info().
			Str("address", address.Hex()).
			Uint64("balance", flagBalance).
			Msg("account created")
	},
}
