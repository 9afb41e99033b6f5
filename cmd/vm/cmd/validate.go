package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/onflow/vm-runtime/fvm"
	bstorage "github.com/onflow/vm-runtime/storage/badger"
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&flagBlockFile, "block", "b", "", "CBOR file with the transactions to validate")
	_ = validateCmd.MarkFlagRequired("block")
	validateCmd.Flags().Uint64Var(&flagBlockTime, "block-time", 0, "time transactions expire against, in seconds")
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "check which transactions would be admitted, without executing them",
	Run: func(cmd *cobra.Command, args []string) {
		txs := readBlock(flagBlockFile)

		db, closeDB := initDB()
		defer closeDB()
		state := bstorage.NewState(db)

		ctx, stop := initContext(fvm.WithBlockTime(flagBlockTime))
		defer stop()

		machine := fvm.NewVirtualMachine()
		statuses := machine.ValidateTransactions(ctx, txs, state)
		for i, status := range statuses {
			if status == nil {
				log.Info().Int("tx_index", i).Msg("transaction is admissible")
				continue
			}
			log.Info().
				Int("tx_index", i).
				Uint16("code", uint16(status.Code())).
				Str("error", status.Error()).
				Msg("transaction rejected")
		}

		validated, rejected := machine.ValidationStats()
		log.Info().
			Uint64("validated", validated).
			Uint64("rejected", rejected).
			Msg("validation done")
	},
}
