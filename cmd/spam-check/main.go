package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mikey/spam-sentry/internal/core"
	"github.com/mikey/spam-sentry/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run evaluates a single message against the pre-filter and, unless the
// message is already clear or -local-only is set, the semantic classifier.
func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	preFilter *core.PreFilter,
	classifier core.Classifier,
) error {
	defer logger.Sync()

	content, err := readMessage(flags)
	if err != nil {
		return fmt.Errorf("failed to read message: %w", err)
	}

	// A synthetic long-standing author, so only the content rules apply.
	now := time.Now()
	msg := &core.Message{
		UserID:           "cli",
		Username:         "cli",
		Content:          content,
		AccountCreatedAt: now.AddDate(-1, 0, 0),
		JoinedAt:         now.AddDate(-1, 0, 0),
	}

	suspicious, reason := preFilter.Evaluate(msg)
	fmt.Printf("Pre-filter: possibly_spam=%t reason=%q\n", suspicious, reason)

	if !suspicious || flags.LocalOnly {
		return nil
	}

	isSpam, err := classifier.Classify(context.Background(), content)
	if err != nil {
		return fmt.Errorf("classifier call failed: %w", err)
	}

	verdict := core.VerdictConfirmedClean
	if isSpam {
		verdict = core.VerdictConfirmedSpam
	}
	fmt.Printf("Classifier: %s\n", verdict)
	return nil
}

// readMessage takes the message text from the flag or from stdin.
func readMessage(flags *di.CLIFlags) (string, error) {
	if flags.Message != "" {
		return flags.Message, nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
