package main

// Run the coaching pipeline once against a local file:
//   go run ./cmd/coach -resume ./cv.pdf -location Lahore

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"resume-coach/internal/bootstrap"
	"resume-coach/internal/coach"
	"resume-coach/internal/extract"
	"resume-coach/internal/shared/config"
)

func main() {
	cfg := config.Load()

	resumePath := flag.String("resume", "", "Path to resume file (pdf or docx)")
	location := flag.String("location", "", "Preferred job location")
	model := flag.String("model", cfg.GeminiModel, "Gemini model")
	outPath := flag.String("out", "", "Path to write the Markdown output (optional)")
	flag.Parse()

	if strings.TrimSpace(*resumePath) == "" {
		exitErr("resume path is required")
	}
	cfg.GeminiModel = *model

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resumeText, err := extract.ExtractFile(ctx, *resumePath)
	if err != nil {
		exitErr(fmt.Sprintf("extract resume text: %v", err))
	}

	pipeline, _, _ := bootstrap.BuildPipeline(cfg)
	res := pipeline.Run(ctx, coach.Input{ResumeText: resumeText, Location: *location})

	feedback, improved, jobs := res.Formatted()
	out := strings.Join([]string{feedback, improved, jobs}, "\n\n") + "\n"
	fmt.Print(out)

	if strings.TrimSpace(*outPath) != "" {
		if err := os.WriteFile(*outPath, []byte(out), 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if res.Err != nil {
		if errors.Is(res.Err, context.Canceled) {
			exitErr("interrupted")
		}
		exitErr(fmt.Sprintf("generation failed: %v", res.Err))
	}
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
