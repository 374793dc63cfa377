package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags makes every flag of fs resolvable through viper under its own
// name.
func bindFlags(fs *pflag.FlagSet) {
	if err := viper.BindPFlags(fs); err != nil {
		log.Fatal().Err(err).Msg("Failed to bind flags")
	}
}
