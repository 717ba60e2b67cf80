package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"log/slog"

	"github.com/cheggaaa/pb/v3"
	"github.com/lmittmann/tint"

	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/analyzer"
	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/coach"
	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/collector"
	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/exercises"
	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/ml"
	"github.com/andyzwu25/AI-Powered-Rehab-Exercise-Analyzer/internal/pose"
)

func usage() {
	fmt.Println("Usage: formanalyzer <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  analyze       --input pose.json --exercise <type> [--models dir] [--coach]")
	fmt.Println("  train         --exercise <type> [--data dir] [--models dir] [--kind random_forest|gradient_boosting]")
	fmt.Println("  stats         --exercise <type> [--data dir]")
	fmt.Println("  requirements  --exercise <type>")
	fmt.Println("  exercises")
	os.Exit(1)
}

func main() {
	ctx := context.Background()

	// Configure logger
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: "15:04:05",
		}),
	)

	if len(os.Args) < 2 {
		usage()
	}
	command := os.Args[1]

	// Parse command line arguments
	inputPath := ""
	exerciseType := ""
	dataDir := "data/training"
	modelsDir := "data/models"
	modelKind := string(ml.KindRandomForest)
	useCoach := false

	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--input":
			if i+1 < len(os.Args) {
				inputPath = os.Args[i+1]
				i++
			}
		case "--exercise":
			if i+1 < len(os.Args) {
				exerciseType = os.Args[i+1]
				i++
			}
		case "--data":
			if i+1 < len(os.Args) {
				dataDir = os.Args[i+1]
				i++
			}
		case "--models":
			if i+1 < len(os.Args) {
				modelsDir = os.Args[i+1]
				i++
			}
		case "--kind":
			if i+1 < len(os.Args) {
				modelKind = os.Args[i+1]
				i++
			}
		case "--coach":
			useCoach = true
		}
	}

	switch command {
	case "analyze":
		runAnalyze(ctx, logger, inputPath, exerciseType, modelsDir, useCoach)
	case "train":
		runTrain(logger, exerciseType, dataDir, modelsDir, ml.Kind(modelKind))
	case "stats":
		runStats(exerciseType, dataDir)
	case "requirements":
		runRequirements(exerciseType, modelsDir, logger)
	case "exercises":
		runExercises()
	default:
		usage()
	}
}

func newOrchestrator(modelsDir string, logger *slog.Logger) *analyzer.Orchestrator {
	trainer, err := ml.NewTrainer(modelsDir, logger)
	if err != nil {
		log.Fatalf("Failed to open model store: %v", err)
	}
	registry := exercises.NewRegistry(exercises.DefaultConfig())
	return analyzer.NewOrchestrator(registry, trainer, logger)
}

func runAnalyze(ctx context.Context, logger *slog.Logger, inputPath, exerciseType, modelsDir string, useCoach bool) {
	if inputPath == "" || exerciseType == "" {
		usage()
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		log.Fatalf("Failed to read pose file: %v", err)
	}
	var seq pose.Sequence
	if err := json.Unmarshal(data, &seq); err != nil {
		log.Fatalf("Failed to decode pose file: %v", err)
	}

	orch := newOrchestrator(modelsDir, logger)
	result, err := orch.Analyze(exerciseType, seq)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	fmt.Printf("Exercise: %s\n", exerciseType)
	fmt.Printf("Score:    %.1f/100 (%s)\n", result.Score, result.Method)
	fmt.Println("Feedback:")
	for _, f := range result.Feedback {
		fmt.Printf("  - %s\n", f)
	}

	if useCoach {
		coachAgent, err := coach.NewAgent(ctx, logger)
		if err != nil {
			logger.Warn("coach unavailable, skipping narrative advice", "error", err)
			return
		}
		advice, err := coach.NewCoach(coachAgent, logger).Advise(ctx, exerciseType, result)
		if err != nil {
			logger.Warn("coach failed, skipping narrative advice", "error", err)
			return
		}
		fmt.Println()
		fmt.Println("Coaching notes:")
		fmt.Println(advice)
	}
}

func runTrain(logger *slog.Logger, exerciseType, dataDir, modelsDir string, kind ml.Kind) {
	if exerciseType == "" {
		usage()
	}

	store, err := collector.NewStore(dataDir)
	if err != nil {
		log.Fatalf("Failed to open training data store: %v", err)
	}
	stored, err := store.Load(exerciseType)
	if err != nil {
		log.Fatalf("Failed to load training data: %v", err)
	}

	examples := make([]ml.Example, 0, len(stored))
	for _, ex := range stored {
		examples = append(examples, ml.Example{Sequence: ex.PoseData, Score: ex.Score})
	}

	trainer, err := ml.NewTrainer(modelsDir, logger)
	if err != nil {
		log.Fatalf("Failed to open model store: %v", err)
	}

	// Track feature extraction, the long-running part of the run.
	bar := pb.StartNew(len(examples))
	trainer.OnProgress = func(done, total int) {
		bar.Increment()
	}
	report, err := trainer.Train(exerciseType, examples, kind)
	bar.Finish()
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}

	fmt.Printf("Trained %s model for %s\n", report.ModelKind, report.ExerciseType)
	fmt.Printf("  train samples: %d, test samples: %d\n", report.TrainingSamples, report.TestSamples)
	fmt.Printf("  test RMSE: %.2f, test R2: %.3f\n", report.TestRMSE, report.TestR2)
}

func runStats(exerciseType, dataDir string) {
	if exerciseType == "" {
		usage()
	}
	store, err := collector.NewStore(dataDir)
	if err != nil {
		log.Fatalf("Failed to open training data store: %v", err)
	}
	stats, err := store.Stats(exerciseType)
	if err != nil {
		log.Fatalf("Failed to compute statistics: %v", err)
	}
	fmt.Printf("Training data for %s:\n", exerciseType)
	fmt.Printf("  count: %d\n", stats.Count)
	fmt.Printf("  score avg/min/max: %.1f / %.1f / %.1f (std %.1f)\n",
		stats.AvgScore, stats.MinScore, stats.MaxScore, stats.StdScore)
}

func runRequirements(exerciseType, modelsDir string, logger *slog.Logger) {
	if exerciseType == "" {
		usage()
	}
	orch := newOrchestrator(modelsDir, logger)
	reqs, err := orch.VideoRequirements(exerciseType)
	if err != nil {
		log.Fatalf("Failed to get video requirements: %v", err)
	}
	fmt.Printf("Video requirements for %s:\n", exerciseType)
	for _, r := range reqs {
		fmt.Printf("  - %s\n", r)
	}
	fmt.Println("Tips:")
	for _, t := range exercises.Tips(exerciseType) {
		fmt.Printf("  - %s\n", t)
	}
}

func runExercises() {
	fmt.Println("Supported exercises:")
	for _, ex := range exercises.Catalog() {
		fmt.Printf("  %-10s %s (%s): %s\n", ex.ID, ex.Name, ex.Difficulty, ex.Description)
	}
}
