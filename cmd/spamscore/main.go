package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mazzlabs/mailworks/internal/logging"
	"github.com/mazzlabs/mailworks/internal/parser"
	"github.com/mazzlabs/mailworks/internal/spam"
)

var (
	inputFile = flag.String("file", "", "Input email file (use stdin if not specified)")
	verbose   = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog   = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Read email from file or stdin
	var raw []byte
	if *inputFile != "" {
		raw, err = os.ReadFile(*inputFile)
		if err != nil {
			logger.Fatal("Failed to read input file", zap.Error(err), zap.String("file", *inputFile))
		}
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			logger.Fatal("Failed to read stdin", zap.Error(err))
		}
		logger.Info("Reading email from stdin")
	}

	// Parse email
	msg, err := parser.Parse(raw)
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", msg.From)
	fmt.Printf("To: %v\n", msg.To)
	fmt.Printf("Subject: %s\n", msg.Subject)
	fmt.Printf("Body length: %d bytes\n", len(msg.Text))
	fmt.Printf("Attachments: %d\n", len(msg.Attachments))
	fmt.Printf("\n")

	// Score email
	startTime := time.Now()
	verdict := spam.NewScorer().Score(msg)
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("=== Results ===\n")
	fmt.Printf("Spam score: %d\n", verdict.Score)
	fmt.Printf("Classification: %s\n", verdict.Classification)
	fmt.Printf("Reason: %s\n", verdict.Reason)
	fmt.Printf("Processing time: %v\n", duration)
}
