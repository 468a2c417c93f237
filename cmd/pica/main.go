package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jmallory/pica/internal/config"
	"github.com/jmallory/pica/internal/domain"
	"github.com/jmallory/pica/internal/gallery"
	"github.com/jmallory/pica/internal/gateway/cloudinary"
	"github.com/jmallory/pica/internal/log"
	"github.com/jmallory/pica/internal/store"
	"github.com/jmallory/pica/internal/tui"
	"github.com/jmallory/pica/internal/upload"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var (
		showVersion bool
		runSetup    bool
		logout      bool
		clearCache  bool
		uploadPath  string
		description string
		tags        string
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&runSetup, "setup", false, "configure credentials")
	flag.BoolVar(&logout, "logout", false, "clear credentials and cached photos")
	flag.BoolVar(&clearCache, "clear-cache", false, "clear cached photos")
	flag.StringVar(&uploadPath, "upload", "", "upload an image file and exit")
	flag.StringVar(&description, "description", "", "description for -upload")
	flag.StringVar(&tags, "tags", "", "comma-separated tags for -upload")
	flag.Parse()

	if showVersion {
		fmt.Printf("pica %s\n", Version)
		return
	}

	if err := run(runSetup, logout, clearCache, uploadPath, description, tags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(runSetup, logout, clearCache bool, uploadPath, description, tags string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.Setup(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting pica", "version", Version)

	general, err := store.NewBoltBackend(cfg.Storage.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to open local storage: %w", err)
	}
	defer general.Close()

	secure := store.NewSecureFileBackend(cfg.Storage.SecretsDir)
	creds := store.NewCredentials(general, secure, secure.Probe, logger)
	cache := store.NewPhotoCache(general, logger)

	switch {
	case runSetup:
		return runSetupFlow(creds)

	case logout:
		creds.ClearAll()
		cache.ClearAll()
		fmt.Println("Credentials and cached photos cleared.")
		return nil

	case clearCache:
		cache.ClearAll()
		fmt.Println("Cached photos cleared.")
		return nil
	}

	// First run: walk through setup before anything needs credentials.
	if _, ok := creds.DisplayCredentials(); !ok {
		return runSetupFlow(creds)
	}

	client := cloudinary.NewClient(cfg.Gateway.BaseURL, logger)

	if uploadPath != "" {
		return runUpload(client, creds, cache, logger, uploadPath, description, tags)
	}

	relay := tui.NewRefreshRelay()
	svc := gallery.NewService(client, creds, cache, relay, logger)
	model := tui.NewModel(svc, relay, cfg.UI.ShowDetails, logger)

	logger.Info("starting TUI")

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runSetupFlow collects both credential tiers interactively. The secret pair
// is optional: uploads work without it, browsing and editing do not.
func runSetupFlow(creds domain.CredentialStore) error {
	fmt.Println()
	fmt.Println("Welcome to pica!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	cloudName, err := promptRequired(reader, "Cloud name: ")
	if err != nil {
		return err
	}
	preset, err := promptRequired(reader, "Upload preset: ")
	if err != nil {
		return err
	}
	folder, err := prompt(reader, fmt.Sprintf("Folder [%s]: ", domain.DefaultFolder))
	if err != nil {
		return err
	}

	if err := creds.SaveDisplayCredentials(domain.DisplayCredentials{
		CloudName:    cloudName,
		UploadPreset: preset,
		Folder:       folder,
	}); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Println()
	answer, err := prompt(reader, "Configure the API key/secret now? Browsing and editing need them [Y/n]: ")
	if err != nil {
		return err
	}
	if strings.EqualFold(answer, "n") || strings.EqualFold(answer, "no") {
		fmt.Println()
		fmt.Println("✓ Configuration saved. Run `pica -setup` again to add the API pair.")
		return nil
	}

	apiKey, err := promptRequired(reader, "API key: ")
	if err != nil {
		return err
	}

	fmt.Print("API secret: ")
	secretBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read api secret: %w", err)
	}
	apiSecret := strings.TrimSpace(string(secretBytes))
	if apiSecret == "" {
		return fmt.Errorf("api secret cannot be empty")
	}

	if err := creds.SaveSecretCredentials(domain.SecretCredentials{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}); err != nil {
		return fmt.Errorf("failed to save api credentials: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	fmt.Println("Run pica again to browse your gallery.")
	return nil
}

func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

func promptRequired(reader *bufio.Reader, label string) (string, error) {
	for {
		value, err := prompt(reader, label)
		if err != nil {
			return "", err
		}
		if value != "" {
			return value, nil
		}
		fmt.Println("A value is required. Please try again.")
	}
}

// runUpload handles the scripted upload path.
func runUpload(client *cloudinary.Client, creds domain.CredentialStore, cache domain.PhotoCache, logger *slog.Logger, path, description, tags string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	svc := upload.NewService(client, creds, cache, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := svc.Upload(ctx, file, filepath.Base(path), description, splitTags(tags))
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Printf("✓ Uploaded %s (%dx%d, %d bytes)\n", result.PublicID, result.Width, result.Height, result.Bytes)
	fmt.Println(result.SecureURL)
	if result.MetadataErr != nil {
		fmt.Printf("! Metadata was not applied: %v\n", result.MetadataErr)
	}
	return nil
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return domain.NormalizeTags(strings.Split(s, ","))
}
