package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/onflow/vm-runtime/fvm"
	"github.com/onflow/vm-runtime/model/vm"
	bstorage "github.com/onflow/vm-runtime/storage/badger"
)

var (
	flagBlockFile string
	flagBlockTime uint64
	flagDryRun    bool
)

func init() {
	rootCmd.AddCommand(executeCmd)

	executeCmd.Flags().StringVarP(&flagBlockFile, "block", "b", "", "CBOR file with the transactions of the block")
	_ = executeCmd.MarkFlagRequired("block")
	executeCmd.Flags().Uint64Var(&flagBlockTime, "block-time", 0, "time transactions expire against, in seconds")
	executeCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "do not commit the write sets")
}

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "execute a block of transactions and commit its write sets",
	Run: func(cmd *cobra.Command, args []string) {
		txs := readBlock(flagBlockFile)

		db, closeDB := initDB()
		defer closeDB()
		state := bstorage.NewState(db)

		ctx, stop := initContext(fvm.WithBlockTime(flagBlockTime))
		defer stop()

		machine := fvm.NewVirtualMachine()
		outputs, err := machine.ExecuteBlock(ctx, txs, state)
		if err != nil {
			log.Fatal().Err(err).Msg("block execution failed")
		}

		var (
			writeSets []vm.WriteSet
			gasUsed   uint64
		)
		for i, output := range outputs {
			event := log.Info().
				Int("tx_index", i).
				Str("disposition", output.Disposition.String()).
				Str("family", output.Family()).
				Uint64("gas_used", output.GasUsed).
				Int("writes", len(output.WriteSet)).
				Int("events", len(output.Events))
			if output.Err != nil {
				event = event.Str("error", output.Err.Error())
			}
			event.Msg("transaction processed")

			if output.Disposition == fvm.DispositionKeep {
				writeSets = append(writeSets, output.WriteSet)
				gasUsed += output.GasUsed
			}
		}

		if flagDryRun {
			log.Info().Int("write_sets", len(writeSets)).Msg("dry run, nothing committed")
			return
		}

		err = state.Commit(writeSets...)
		if err != nil {
			log.Fatal().Err(err).Msg("could not commit write sets")
		}
		log.Info().
			Int("transactions", len(txs)).
			Int("write_sets", len(writeSets)).
			Uint64("gas_used", gasUsed).
			Msg("block committed")
	},
}

func readBlock(path string) []vm.Transaction {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("block", path).Msg("could not read block file")
	}

	txs, err := vm.DecodeTransactions(data)
	if err != nil {
		log.Fatal().Err(err).Str("block", path).Msg("could not decode block file")
	}
	return txs
}
