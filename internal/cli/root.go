package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"telegram-mood-tracker/internal/config"
	"telegram-mood-tracker/internal/utils"
)

type app struct {
	v   *viper.Viper
	cfg config.Config
}

func Execute() error {
	return NewRootCmd().Execute()
}

func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	config.SetDefaults(a.v)

	cmd := &cobra.Command{
		Use:           "moodbot",
		Short:         "Telegram mood check-ins, questionnaires and followups",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "Config file path (optional).")
	pf.String("log-level", "", "Logging level: debug|info|warn|error.")
	pf.String("log-format", "", "Logging format: text|json.")
	pf.String("state-dir", "", "Directory holding offset, conversation and followup state.")
	pf.String("data-dir", "", "Directory holding the CSV logs.")
	pf.String("backend", "", "State backend: files|sqlite.")
	pf.String("mode", "", "Questionnaire mode: stepwise|single.")

	_ = a.v.BindPFlag("config", pf.Lookup("config"))
	_ = a.v.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log_format", pf.Lookup("log-format"))
	_ = a.v.BindPFlag("state_dir", pf.Lookup("state-dir"))
	_ = a.v.BindPFlag("data_dir", pf.Lookup("data-dir"))
	_ = a.v.BindPFlag("store_backend", pf.Lookup("backend"))
	_ = a.v.BindPFlag("questionnaire_mode", pf.Lookup("mode"))

	cmd.AddCommand(
		a.newRemindCmd(),
		a.newPollCmd(),
		a.newAskCmd(),
		a.newFollowupsCmd(),
		a.newTickCmd(),
		a.newServeCmd(),
		a.newResetCmd(),
		a.newStatusCmd(),
	)
	return cmd
}

func (a *app) init() error {
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	if cfgFile := strings.TrimSpace(a.v.GetString("config")); cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := utils.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
