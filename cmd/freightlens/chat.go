package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"freightlens/internal/config"
	"freightlens/internal/pipeline"
	"freightlens/internal/translator"
)

func newChatCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive question session with conversation memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()
			return runChat(cmd, a, *configPath)
		},
	}
}

func runChat(cmd *cobra.Command, a *app, configPath string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Limit changes from a config edit apply to the next question.
	var historyTurns atomic.Int64
	historyTurns.Store(int64(a.cfg.Limits.HistoryTurns))
	go func() {
		err := config.Watch(ctx, configPath, a.log.Named("config"), func(cfg config.Config) {
			historyTurns.Store(int64(cfg.Limits.HistoryTurns))
		})
		if err != nil && ctx.Err() == nil {
			a.log.Warn("config watch stopped", zap.Error(err))
		}
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "freightlens chat. Ask about bookings; 'exit' to quit.")

	var history []translator.Turn
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		reqCtx, reqCancel := context.WithTimeout(ctx, a.cfg.Limits.RequestTimeout)
		resp, err := a.pipe.Run(reqCtx, pipeline.Request{Question: question, History: history})
		reqCancel()
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}

		printResponse(out, resp)

		answer := resp.Narrative
		if resp.Clarification != "" {
			answer = resp.Clarification
		}
		history = append(history,
			translator.Turn{Role: "user", Content: question},
			translator.Turn{Role: "assistant", Content: answer},
		)
		if max := int(historyTurns.Load()) * 2; max > 0 && len(history) > max {
			history = history[len(history)-max:]
		}
	}
}
