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
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luckygas/luckygas/agent"
	"github.com/luckygas/luckygas/config"
)

// buildAgentQueue wires the on-device sync queue: a SQLite-backed store and
// an HTTP client that replays against the configured server.
func buildAgentQueue(cnf *config.Configuration) (*agent.Queue, error) {
	if cnf.Agent.ServerURL == "" {
		return nil, fmt.Errorf("agent server_url is not configured")
	}
	if cnf.Agent.DriverID == "" {
		return nil, fmt.Errorf("agent driver_id is not configured")
	}

	store, err := agent.NewSQLiteStore(cnf.Agent.QueuePath)
	if err != nil {
		return nil, err
	}

	client := agent.NewClient(cnf.Agent.ServerURL, cnf.Agent.DriverID, cnf.Agent.Token, cnf.Agent.HTTPTimeout)
	queue := agent.NewQueue(store, client, client)
	queue.SetRetryCap(cnf.Agent.MaxRetries)
	return queue, nil
}

// agentCommands defines the "agent" command that runs on driver devices. It
// keeps a local queue of mutations made while offline and replays them on a
// schedule whenever the server is reachable.
func agentCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "run the driver device sync agent",
	}

	cmd.AddCommand(agentStartCommands())
	cmd.AddCommand(agentSyncCommands())
	cmd.AddCommand(agentStatusCommands())

	return cmd
}

func agentStartCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use: "start",
		Run: func(cmd *cobra.Command, args []string) {
			cnf, err := config.Fetch()
			if err != nil {
				log.Fatal("Error fetching config:", err)
			}

			queue, err := buildAgentQueue(cnf)
			if err != nil {
				log.Fatal(err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			runner := agent.NewRunner(queue, cnf.Agent.SyncSchedule)
			if err := runner.Start(ctx); err != nil {
				log.Fatal(err)
			}
			log.Printf("Sync agent started for driver %s (schedule %q)", cnf.Agent.DriverID, cnf.Agent.SyncSchedule)

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			<-sigs

			runner.Stop()
		},
	}

	return cmd
}

func agentSyncCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "run one sync pass now",
		Run: func(cmd *cobra.Command, args []string) {
			cnf, err := config.Fetch()
			if err != nil {
				log.Fatal("Error fetching config:", err)
			}

			queue, err := buildAgentQueue(cnf)
			if err != nil {
				log.Fatal(err)
			}

			if err := queue.TriggerSync(context.Background()); err != nil {
				log.Fatal(err)
			}

			progress := queue.Progress()
			fmt.Printf("Synced %d of %d queued mutations (%d failed)\n", progress.Completed, progress.Total, progress.Failed)
		},
	}

	return cmd
}

func agentStatusCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "show how many mutations are waiting",
		Run: func(cmd *cobra.Command, args []string) {
			cnf, err := config.Fetch()
			if err != nil {
				log.Fatal("Error fetching config:", err)
			}

			store, err := agent.NewSQLiteStore(cnf.Agent.QueuePath)
			if err != nil {
				log.Fatal(err)
			}

			n, err := store.Len(context.Background())
			if err != nil {
				log.Fatal(err)
			}
			fmt.Printf("%d queued mutations in %s\n", n, cnf.Agent.QueuePath)
		},
	}

	return cmd
}
