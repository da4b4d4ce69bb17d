package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/grlkrash/grlkrashai-go/internal/config"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== GRLKRASH Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit milestone rules")
		fmt.Println("3) Edit posting caps")
		fmt.Println("4) Edit engagement settings")
		fmt.Println("5) Save config")
		fmt.Println("6) Launch agent")
		fmt.Println("7) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editMilestones(reader, cfg)
		case "3":
			editCaps(reader, cfg)
		case "4":
			editEngagement(reader, cfg)
		case "5":
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "6":
			launchAgent(reader)
		case "7":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Market provider: %s (pairs: %s)\n", cfg.Market.Provider, strings.Join(cfg.Market.Pairs, ", "))
	fmt.Println("Publish platforms:", strings.Join(cfg.Social.Platforms, ", "))
	fmt.Printf("Posting caps: %d/hour, %d/day, min gap %ds\n",
		cfg.Limits.HourlyPerPlatform, cfg.Limits.DailyPerPlatform, cfg.Limits.MinGapSeconds)
	fmt.Printf("Milestone rules: %d\n", len(cfg.Milestones))
	for _, r := range cfg.Milestones {
		fmt.Printf("  %s: %s >= %.0f (hysteresis %.2f)\n", r.Name, r.Metric, r.Threshold, r.Hysteresis)
	}
	fmt.Printf("Engagement: enabled=%v keywords=%s min likes %d, min followers %d\n",
		cfg.Engagement.Enabled, strings.Join(cfg.Engagement.Keywords, ", "),
		cfg.Engagement.MinLikes, cfg.Engagement.MinFollowers)
	fmt.Printf("Chain: id %d, escalate %d%%, max fee %.1f gwei, max attempts %d\n",
		cfg.Chain.ChainID, cfg.Chain.EscalatePercent, cfg.Chain.MaxFeeGwei, cfg.Chain.MaxAttempts)
}

func editMilestones(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Milestone Rules ---")
	for i := range cfg.Milestones {
		r := &cfg.Milestones[i]
		fmt.Printf("[%s] metric %s\n", r.Name, r.Metric)
		r.Threshold = promptFloat(reader, "  Threshold", r.Threshold)
		r.Hysteresis = promptFloat(reader, "  Hysteresis (0-1)", r.Hysteresis)
	}
	fmt.Print("Add new rule? (name or blank): ")
	line, _ := reader.ReadString('\n')
	name := strings.TrimSpace(line)
	if name == "" {
		return
	}
	fmt.Print("  Metric: ")
	metricLine, _ := reader.ReadString('\n')
	rule := config.MilestoneRule{
		Name:       name,
		Metric:     strings.TrimSpace(metricLine),
		Threshold:  promptFloat(reader, "  Threshold", 0),
		Hysteresis: promptFloat(reader, "  Hysteresis (0-1)", 0.05),
	}
	cfg.Milestones = append(cfg.Milestones, rule)
}

func editCaps(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Posting Caps ---")
	cfg.Limits.HourlyPerPlatform = int(promptFloat(reader, "Posts per hour per platform", float64(cfg.Limits.HourlyPerPlatform)))
	cfg.Limits.DailyPerPlatform = int(promptFloat(reader, "Posts per day per platform", float64(cfg.Limits.DailyPerPlatform)))
	cfg.Limits.MinGapSeconds = int(promptFloat(reader, "Min gap between posts (seconds)", float64(cfg.Limits.MinGapSeconds)))
	cfg.Limits.PerMinute = promptFloat(reader, "Global posts per minute", cfg.Limits.PerMinute)
	cfg.Limits.Burst = int(promptFloat(reader, "Global burst", float64(cfg.Limits.Burst)))
}

func editEngagement(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Engagement ---")
	fmt.Printf("Current keywords: %s\n", strings.Join(cfg.Engagement.Keywords, ", "))
	fmt.Print("Enter keywords comma-separated (blank to keep): ")
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		parts := strings.Split(strings.TrimSpace(line), ",")
		cfg.Engagement.Keywords = nil
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.Engagement.Keywords = append(cfg.Engagement.Keywords, trimmed)
			}
		}
	}
	cfg.Engagement.MinLikes = int(promptFloat(reader, "Min likes", float64(cfg.Engagement.MinLikes)))
	cfg.Engagement.MinFollowers = int(promptFloat(reader, "Min author followers", float64(cfg.Engagement.MinFollowers)))
	cfg.Engagement.MaxPerRefresh = int(promptFloat(reader, "Max mentions per refresh", float64(cfg.Engagement.MaxPerRefresh)))
	cfg.Engagement.PointsPerReply = int64(promptFloat(reader, "Points per reply", float64(cfg.Engagement.PointsPerReply)))
}

func launchAgent(reader *bufio.Reader) {
	fmt.Println("Launching agent (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/agent")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start agent: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop the agent and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
