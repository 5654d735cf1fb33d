/*
Copyright 2024 Lucky Gas Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/luckygas/luckygas"
	"github.com/luckygas/luckygas/config"
	"github.com/luckygas/luckygas/database"
	"github.com/luckygas/luckygas/internal/notification"
)

// LuckyGasCLI encapsulates the root Cobra command.
type LuckyGasCLI struct {
	cmd *cobra.Command
}

// luckyInstance holds the runtime service instance and its configuration for
// subcommands to share.
type luckyInstance struct {
	lucky *luckygas.LuckyGas
	cnf   *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads configuration and initializes the service instance before any
// command executes.
func preRun(app *luckyInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("luckygas.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}
		app.cnf = cnf

		// The agent runs on driver devices and the config command is pure
		// inspection; neither needs the server-side datasource.
		switch cmd.Name() {
		case "agent", "config":
			return nil
		}

		newLucky, err := setupLuckyGas(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.lucky = newLucky

		return nil
	}
}

func setupLuckyGas(cfg *config.Configuration) (*luckygas.LuckyGas, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newLucky, err := luckygas.NewLuckyGas(db)
	if err != nil {
		return nil, fmt.Errorf("error creating luckygas: %v", err)
	}
	return newLucky, nil
}

// NewCLI assembles the command-line interface: server, workers, migrations,
// backups, the driver agent and config inspection.
func NewCLI() *LuckyGasCLI {
	var configFile string
	l := &luckyInstance{}

	var rootCmd = &cobra.Command{
		Use:   "luckygas",
		Short: "Gas cylinder delivery management",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./luckygas.json", "Configuration file for luckygas")

	rootCmd.PersistentPreRunE = preRun(l)

	rootCmd.AddCommand(serverCommands(l))
	rootCmd.AddCommand(workerCommands(l))
	rootCmd.AddCommand(migrateCommands(l))
	rootCmd.AddCommand(backupCommands(l))
	rootCmd.AddCommand(agentCommands())
	rootCmd.AddCommand(configCommands())

	return &LuckyGasCLI{cmd: rootCmd}
}

func (w LuckyGasCLI) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
