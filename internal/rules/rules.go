// Package rules loads and saves the tunable rule files: merchant
// eligibility keywords and CSV format signatures. Both live as YAML so
// operators can adjust classification without a redeploy.
package rules

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"finbase/txlink/internal/format"
	"finbase/txlink/internal/logging"
	"finbase/txlink/internal/merchant"
)

// Store manages the rule files. Empty file names fall back to the default
// names resolved against standard locations.
type Store struct {
	MerchantFile   string
	SignaturesFile string

	logger logging.Logger
}

// NewStore creates a rule store. A nil logger gets a default adapter.
func NewStore(merchantFile, signaturesFile string, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Store{
		MerchantFile:   merchantFile,
		SignaturesFile: signaturesFile,
		logger:         logger,
	}
}

// merchantRulesFile wraps the rule set under a top-level key so the YAML
// file stays self-describing.
type merchantRulesFile struct {
	Merchant merchant.Rules `yaml:"merchant"`
}

type signaturesFile struct {
	Signatures []format.Signature `yaml:"signatures"`
}

// FindConfigFile looks for a rule file in standard locations: the path
// itself, ./config/, then ~/.config/txlink/.
func (s *Store) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".config", "txlink", filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", os.ErrNotExist
}

// LoadMerchantRules reads the merchant rule file. A missing file is not an
// error: the built-in defaults apply.
func (s *Store) LoadMerchantRules() (merchant.Rules, error) {
	filename := s.MerchantFile
	if filename == "" {
		filename = "merchant-rules.yaml"
	}

	filePath, err := s.FindConfigFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.WithField(logging.FieldFile, filename).
				Debug("Merchant rules file not found, using defaults")
			return merchant.DefaultRules(), nil
		}
		return merchant.Rules{}, fmt.Errorf("resolving merchant rules file: %w", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return merchant.Rules{}, fmt.Errorf("reading merchant rules file: %w", err)
	}

	var file merchantRulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return merchant.Rules{}, fmt.Errorf("parsing merchant rules file: %w", err)
	}
	if file.Merchant.Brand == "" {
		// Tolerate files written without the top-level key.
		var flat merchant.Rules
		if err := yaml.Unmarshal(data, &flat); err == nil && flat.Brand != "" {
			file.Merchant = flat
		}
	}
	if file.Merchant.Brand == "" {
		s.logger.WithField(logging.FieldFile, filePath).
			Warn("Merchant rules file has no brand, using defaults")
		return merchant.DefaultRules(), nil
	}

	s.logger.WithField(logging.FieldFile, filePath).Debug("Loaded merchant rules")
	return file.Merchant, nil
}

// SaveMerchantRules writes the merchant rule set back to YAML, creating the
// parent directory if needed.
func (s *Store) SaveMerchantRules(rules merchant.Rules) error {
	filename := s.MerchantFile
	if filename == "" {
		filename = "merchant-rules.yaml"
	}

	filePath, err := s.FindConfigFile(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("resolving merchant rules file: %w", err)
		}
		filePath = filename
		if !filepath.IsAbs(filePath) {
			filePath = filepath.Join("config", filename)
		}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("creating rules directory: %w", err)
	}

	data, err := yaml.Marshal(merchantRulesFile{Merchant: rules})
	if err != nil {
		return fmt.Errorf("marshaling merchant rules: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("writing merchant rules file: %w", err)
	}

	s.logger.WithField(logging.FieldFile, filePath).Debug("Saved merchant rules")
	return nil
}

// LoadSignatures reads the format signature file. A missing file means the
// built-in signature set.
func (s *Store) LoadSignatures() ([]format.Signature, error) {
	filename := s.SignaturesFile
	if filename == "" {
		filename = "format-signatures.yaml"
	}

	filePath, err := s.FindConfigFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.WithField(logging.FieldFile, filename).
				Debug("Signature file not found, using defaults")
			return format.DefaultSignatures(), nil
		}
		return nil, fmt.Errorf("resolving signature file: %w", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading signature file: %w", err)
	}

	var file signaturesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing signature file: %w", err)
	}
	if len(file.Signatures) == 0 {
		s.logger.WithField(logging.FieldFile, filePath).
			Warn("Signature file is empty, using defaults")
		return format.DefaultSignatures(), nil
	}

	s.logger.WithFields(
		logging.Field{Key: logging.FieldFile, Value: filePath},
		logging.Field{Key: logging.FieldCount, Value: len(file.Signatures)},
	).Debug("Loaded format signatures")
	return file.Signatures, nil
}

// SaveSignatures writes the signature set back to YAML.
func (s *Store) SaveSignatures(signatures []format.Signature) error {
	filename := s.SignaturesFile
	if filename == "" {
		filename = "format-signatures.yaml"
	}

	filePath, err := s.FindConfigFile(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("resolving signature file: %w", err)
		}
		filePath = filename
		if !filepath.IsAbs(filePath) {
			filePath = filepath.Join("config", filename)
		}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("creating rules directory: %w", err)
	}

	data, err := yaml.Marshal(signaturesFile{Signatures: signatures})
	if err != nil {
		return fmt.Errorf("marshaling signatures: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("writing signature file: %w", err)
	}

	s.logger.WithField(logging.FieldFile, filePath).Debug("Saved format signatures")
	return nil
}
