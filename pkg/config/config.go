// Package config builds the settings shared by the formsheet and querysheet
// commands. Values come from defaults, an optional YAML file and the
// environment, in increasing order of precedence. Each command declares which
// settings it cannot run without; all missing ones are reported together.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Pipeline selects the set of required settings
type Pipeline int

const (
	// Forms is the batch form and table pipeline
	Forms Pipeline = iota
	// Queries is the single document query and summary pipeline
	Queries
)

// Analysis backends
const (
	BackendTextract   = "textract"
	BackendDocumentAI = "documentai"
)

// Config holds every setting either pipeline needs
type Config struct {
	AWS      AWSConfig
	Storage  StorageConfig
	Sheets   SheetsConfig
	Analysis AnalysisConfig
	Summary  SummaryConfig

	Pause           time.Duration // Fixed pause between documents
	ContinueOnError bool          // Keep processing the batch after a document fails
	LogLevel        string
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type StorageConfig struct {
	Bucket string
	Prefix string
}

type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetID   string
	FormTab         string
	TableTab        string
	QueryTab        string
}

type AnalysisConfig struct {
	Backend        string
	AdapterID      string
	AdapterVersion string
	DebugDir       string // Raw responses are written here when set
	DocumentAI     DocumentAIConfig
}

type DocumentAIConfig struct {
	ProjectID   string
	Location    string
	ProcessorID string
}

type SummaryConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// setting binds one configuration key to its environment variables. The
// first variable is the canonical name reported when the value is missing;
// the rest are accepted aliases.
type setting struct {
	key string
	env []string
	def any
}

var settings = []setting{
	{key: "aws.region", env: []string{"AWS_REGION"}, def: "us-east-1"},
	{key: "aws.access_key_id", env: []string{"AWS_ACCESS_KEY_ID"}},
	{key: "aws.secret_access_key", env: []string{"AWS_SECRET_ACCESS_KEY"}},
	{key: "s3.bucket", env: []string{"S3_BUCKET", "S3_BUCKET_NAME"}},
	{key: "s3.prefix", env: []string{"S3_PREFIX"}, def: ""},
	{key: "sheets.credentials_file", env: []string{"GOOGLE_CREDENTIALS_FILE", "GOOGLE_SHEETS_KEYFILE"}, def: "credentials.json"},
	{key: "sheets.spreadsheet_id", env: []string{"SPREADSHEET_ID", "GOOGLE_SHEET_ID"}},
	{key: "sheets.form_tab", env: []string{"FORM_TAB"}, def: "Form Data"},
	{key: "sheets.table_tab", env: []string{"TABLE_TAB"}, def: "Table Data"},
	{key: "sheets.query_tab", env: []string{"QUERY_TAB"}, def: "Form Data"},
	{key: "analysis.backend", env: []string{"ANALYSIS_BACKEND"}, def: BackendTextract},
	{key: "analysis.adapter_id", env: []string{"TEXTRACT_ADAPTER_ID"}},
	{key: "analysis.adapter_version", env: []string{"TEXTRACT_ADAPTER_VERSION"}, def: "1"},
	{key: "analysis.debug_dir", env: []string{"DEBUG_DIR"}},
	{key: "documentai.project_id", env: []string{"DOCAI_PROJECT_ID"}},
	{key: "documentai.location", env: []string{"DOCAI_LOCATION"}},
	{key: "documentai.processor_id", env: []string{"DOCAI_PROCESSOR_ID"}},
	{key: "openai.api_key", env: []string{"OPENAI_API_KEY"}},
	{key: "openai.model", env: []string{"OPENAI_MODEL"}, def: "gpt-4o-mini"},
	{key: "openai.max_tokens", env: []string{"OPENAI_MAX_TOKENS"}, def: 150},
	{key: "pause", env: []string{"PAUSE"}, def: 200 * time.Millisecond},
	{key: "continue_on_error", env: []string{"CONTINUE_ON_ERROR"}, def: false},
	{key: "log_level", env: []string{"LOG_LEVEL"}, def: "info"},
}

// required lists the keys each pipeline cannot run without
var required = map[Pipeline][]string{
	Forms: {"s3.bucket", "sheets.spreadsheet_id"},
	Queries: {
		"aws.access_key_id",
		"aws.secret_access_key",
		"aws.region",
		"s3.bucket",
		"openai.api_key",
		"sheets.spreadsheet_id",
		"sheets.credentials_file",
	},
}

var documentAIRequired = []string{"documentai.project_id", "documentai.location", "documentai.processor_id"}

// MissingError lists every required environment variable that was not set
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Vars, ", ")
}

// Load builds the configuration for a pipeline. configFile may be empty.
func Load(p Pipeline, configFile string) (*Config, error) {
	v := viper.New()

	req := make(map[string]bool)
	for _, key := range required[p] {
		req[key] = true
	}

	// Required settings are never defaulted
	for _, s := range settings {
		if s.def != nil && !req[s.key] {
			v.SetDefault(s.key, s.def)
		}
		_ = v.BindEnv(append([]string{s.key}, s.env...)...)
	}

	if configFile != "" {
		values, err := readFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		for key, val := range values {
			v.SetDefault(key, val)
		}
	}

	keys := required[p]
	if strings.EqualFold(v.GetString("analysis.backend"), BackendDocumentAI) {
		keys = append(append([]string{}, keys...), documentAIRequired...)
	}
	if missing := missingVars(v, keys); len(missing) > 0 {
		return nil, &MissingError{Vars: missing}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func missingVars(v *viper.Viper, keys []string) []string {
	var missing []string
	for _, key := range keys {
		if strings.TrimSpace(v.GetString(key)) != "" {
			continue
		}
		for _, s := range settings {
			if s.key == key {
				missing = append(missing, s.env[0])
				break
			}
		}
	}
	return missing
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		AWS: AWSConfig{
			Region:          v.GetString("aws.region"),
			AccessKeyID:     v.GetString("aws.access_key_id"),
			SecretAccessKey: v.GetString("aws.secret_access_key"),
		},
		Storage: StorageConfig{
			Bucket: v.GetString("s3.bucket"),
			Prefix: v.GetString("s3.prefix"),
		},
		Sheets: SheetsConfig{
			CredentialsFile: v.GetString("sheets.credentials_file"),
			SpreadsheetID:   v.GetString("sheets.spreadsheet_id"),
			FormTab:         v.GetString("sheets.form_tab"),
			TableTab:        v.GetString("sheets.table_tab"),
			QueryTab:        v.GetString("sheets.query_tab"),
		},
		Analysis: AnalysisConfig{
			Backend:        strings.ToLower(v.GetString("analysis.backend")),
			AdapterID:      v.GetString("analysis.adapter_id"),
			AdapterVersion: v.GetString("analysis.adapter_version"),
			DebugDir:       v.GetString("analysis.debug_dir"),
			DocumentAI: DocumentAIConfig{
				ProjectID:   v.GetString("documentai.project_id"),
				Location:    v.GetString("documentai.location"),
				ProcessorID: v.GetString("documentai.processor_id"),
			},
		},
		Summary: SummaryConfig{
			APIKey:    v.GetString("openai.api_key"),
			Model:     v.GetString("openai.model"),
			MaxTokens: v.GetInt("openai.max_tokens"),
		},
		Pause:           v.GetDuration("pause"),
		ContinueOnError: v.GetBool("continue_on_error"),
		LogLevel:        v.GetString("log_level"),
	}
}

// Validate checks settings that have a restricted range of values
func (c *Config) Validate() error {
	if c.Analysis.Backend != BackendTextract && c.Analysis.Backend != BackendDocumentAI {
		return fmt.Errorf("analysis backend must be %q or %q, got %q", BackendTextract, BackendDocumentAI, c.Analysis.Backend)
	}
	if c.Pause < 0 {
		return errors.New("pause cannot be negative")
	}
	if c.Summary.MaxTokens < 0 {
		return errors.New("max tokens cannot be negative")
	}
	return nil
}

// fileConfig is the YAML layout of the optional config file
type fileConfig struct {
	AWS struct {
		Region string `yaml:"region"`
	} `yaml:"aws"`
	S3 struct {
		Bucket string `yaml:"bucket"`
		Prefix string `yaml:"prefix"`
	} `yaml:"s3"`
	Sheets struct {
		CredentialsFile string `yaml:"credentials_file"`
		SpreadsheetID   string `yaml:"spreadsheet_id"`
		FormTab         string `yaml:"form_tab"`
		TableTab        string `yaml:"table_tab"`
		QueryTab        string `yaml:"query_tab"`
	} `yaml:"sheets"`
	Analysis struct {
		Backend        string `yaml:"backend"`
		AdapterID      string `yaml:"adapter_id"`
		AdapterVersion string `yaml:"adapter_version"`
		DebugDir       string `yaml:"debug_dir"`
	} `yaml:"analysis"`
	DocumentAI struct {
		ProjectID   string `yaml:"project_id"`
		Location    string `yaml:"location"`
		ProcessorID string `yaml:"processor_id"`
	} `yaml:"documentai"`
	OpenAI struct {
		Model     string `yaml:"model"`
		MaxTokens int    `yaml:"max_tokens"`
	} `yaml:"openai"`
	Pause           string `yaml:"pause"`
	ContinueOnError *bool  `yaml:"continue_on_error"`
	LogLevel        string `yaml:"log_level"`
}

// readFile reads a YAML config file and returns its non-empty values keyed
// like the settings table. Secrets are only taken from the environment.
func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, err
	}

	values := make(map[string]any)
	put := func(key, val string) {
		if val != "" {
			values[key] = val
		}
	}
	put("aws.region", fc.AWS.Region)
	put("s3.bucket", fc.S3.Bucket)
	put("s3.prefix", fc.S3.Prefix)
	put("sheets.credentials_file", fc.Sheets.CredentialsFile)
	put("sheets.spreadsheet_id", fc.Sheets.SpreadsheetID)
	put("sheets.form_tab", fc.Sheets.FormTab)
	put("sheets.table_tab", fc.Sheets.TableTab)
	put("sheets.query_tab", fc.Sheets.QueryTab)
	put("analysis.backend", fc.Analysis.Backend)
	put("analysis.adapter_id", fc.Analysis.AdapterID)
	put("analysis.adapter_version", fc.Analysis.AdapterVersion)
	put("analysis.debug_dir", fc.Analysis.DebugDir)
	put("documentai.project_id", fc.DocumentAI.ProjectID)
	put("documentai.location", fc.DocumentAI.Location)
	put("documentai.processor_id", fc.DocumentAI.ProcessorID)
	put("openai.model", fc.OpenAI.Model)
	put("pause", fc.Pause)
	put("log_level", fc.LogLevel)
	if fc.OpenAI.MaxTokens > 0 {
		values["openai.max_tokens"] = fc.OpenAI.MaxTokens
	}
	if fc.ContinueOnError != nil {
		values["continue_on_error"] = *fc.ContinueOnError
	}
	return values, nil
}
