package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/repositories"
	"github.com/desertthunder/cdx/internal/services"
	"github.com/desertthunder/cdx/internal/shared"
	"github.com/desertthunder/cdx/internal/tasks"
	"github.com/desertthunder/cdx/internal/ui"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	configSet  bool
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	styles     *ui.Palette

	users    *repositories.UserRepository
	profiles *repositories.ProfileRepository
	wishlist *repositories.WishlistRepository
	alerts   *repositories.PriceAlertRepository
	discogs  *services.DiscogsClient
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB
	Discogs    *services.DiscogsClient
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	configSet := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		configSet:  configSet,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		styles:     ui.Styles(),
		discogs:    opts.Discogs,
	}
	if opts.DB != nil {
		r.attach(opts.DB)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, userCommand, discogsCommand, wishlistCommand, alertCommand, analyzeCommand, exportCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config unless one was injected, then applies the log level.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if !r.configSet {
		config, err := shared.Load(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	level := r.config.Log.Level
	if flag := cmd.String("log-level"); flag != "" {
		level = flag
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// Close releases the database handle.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Runner) attach(db *sql.DB) {
	r.db = db
	r.users = repositories.NewUserRepository(db)
	r.profiles = repositories.NewProfileRepository(db)
	r.wishlist = repositories.NewWishlistRepository(db)
	r.alerts = repositories.NewPriceAlertRepository(db)
}

// openDatabase opens and migrates the configured database once.
func (r *Runner) openDatabase() error {
	if r.db != nil {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if !strings.HasPrefix(r.config.Database.Path, ":memory:") {
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.attach(db)
	return nil
}

// discogsClient builds the Discogs client from config once.
func (r *Runner) discogsClient() (*services.DiscogsClient, error) {
	if r.discogs != nil {
		return r.discogs, nil
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	client, err := services.NewDiscogsClient(services.DiscogsConfig{
		ConsumerKey:    r.config.Discogs.ConsumerKey,
		ConsumerSecret: r.config.Discogs.ConsumerSecret,
		UserAgent:      r.config.Discogs.UserAgent,
		BaseURL:        r.config.Discogs.APIURL,
		AuthorizeURL:   r.config.Discogs.AuthorizeURL,
		HTTPClient:     r.httpClient,
		Logger:         shared.WithLogger(r.logger, "service", "discogs"),
	})
	if err != nil {
		return nil, err
	}
	r.discogs = client
	return client, nil
}

// gateway returns the AI gateway, or nil when no API key is configured.
func (r *Runner) gateway() tasks.Completer {
	client, err := services.NewGatewayClient(services.GatewayConfig{
		APIKey:     r.config.Gateway.APIKey,
		URL:        r.config.Gateway.URL,
		Model:      r.config.Gateway.Model,
		HTTPClient: r.httpClient,
	})
	if err != nil {
		r.logger.Debug("AI gateway disabled", "reason", err)
		return nil
	}
	return client
}

// currentUser resolves the --user email to an application user.
func (r *Runner) currentUser(cmd *cli.Command) (*models.User, error) {
	if err := r.openDatabase(); err != nil {
		return nil, err
	}

	email := cmd.String("user")
	user, err := r.users.GetByEmail(email)
	if errors.Is(err, shared.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: %s (run 'cdx setup' or 'cdx user create')", shared.ErrUserNotFound, email)
	}
	return user, err
}

func (r *Runner) collectionEngine(client *services.DiscogsClient) *tasks.CollectionEngine {
	return tasks.NewCollectionEngine(client, r.profiles, tasks.CollectionOpts{
		PerPage:   r.config.Collection.PerPage,
		MaxPages:  r.config.Collection.MaxPages,
		PageDelay: r.config.Collection.PageDelay,
	}, shared.WithLogger(r.logger, "engine", "collection"))
}

func (r *Runner) priceEngine(client *services.DiscogsClient) *tasks.PriceEngine {
	return tasks.NewPriceEngine(client, r.profiles, r.wishlist, r.alerts, shared.WithLogger(r.logger, "engine", "price"))
}

// follow starts printing progress updates. Call the returned func after the producer finishes.
func (r *Runner) follow() (chan tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go ui.Follow(r.output, progress, done)

	return progress, func() {
		close(progress)
		<-done
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
