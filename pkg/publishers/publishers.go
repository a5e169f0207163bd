package publishers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sink types accepted in the publishers file.
const (
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeGCPPubSub = "gcp_pubsub"
	TypeHTTP      = "http"

	httpDefaultTimeoutSeconds = 5
)

// PublisherConfig declares one change-event sink. Exactly the block matching
// Type is read; the others are ignored.
type PublisherConfig struct {
	ID      string `yaml:"id"`
	Type    string `yaml:"type"`
	Enabled *bool  `yaml:"enabled"`
	// Resources limits the sink to events of these record kinds (cliente,
	// receber, ...). Empty means every resource.
	Resources []string                  `yaml:"resources"`
	SQS       *SQSPublisherConfig       `yaml:"sqs"`
	SNS       *SNSPublisherConfig       `yaml:"sns"`
	GCPPubSub *GCPPubSubPublisherConfig `yaml:"gcp_pubsub"`
	HTTP      *HTTPPublisherConfig      `yaml:"http"`
}

// AWSCredentials optionally pins static credentials and a custom endpoint
// (e.g. LocalStack). Empty values defer to the default AWS chain.
type AWSCredentials struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Endpoint        string `yaml:"endpoint"`
}

// SQSPublisherConfig targets one queue.
type SQSPublisherConfig struct {
	QueueURL string         `yaml:"uri"`
	Region   string         `yaml:"region"`
	AWS      AWSCredentials `yaml:"aws"`
}

// SNSPublisherConfig targets one topic.
type SNSPublisherConfig struct {
	TopicARN string         `yaml:"topic_arn"`
	Region   string         `yaml:"region"`
	AWS      AWSCredentials `yaml:"aws"`
}

// GCPPubSubPublisherConfig targets one Pub/Sub topic.
type GCPPubSubPublisherConfig struct {
	ProjectID       string `yaml:"project_id"`
	Topic           string `yaml:"topic"`
	CredentialsFile string `yaml:"credentials_file"`
	Endpoint        string `yaml:"endpoint"`
}

// HTTPPublisherConfig is a webhook receiving each event as a JSON body.
type HTTPPublisherConfig struct {
	URL            string            `yaml:"url"`
	Method         string            `yaml:"method"`
	Headers        map[string]string `yaml:"headers"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
}

// ConfigRegistry is the validated content of a publishers file. It is
// immutable once loaded.
type ConfigRegistry struct {
	publishers []PublisherConfig
}

// LoadRegistry reads a YAML publishers file. JSON files load too, since
// JSON is valid YAML.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var file struct {
		Publishers []PublisherConfig `yaml:"publishers"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode publishers file %s: %w", path, err)
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	seen := make(map[string]struct{}, len(file.Publishers))
	reg := &ConfigRegistry{publishers: make([]PublisherConfig, 0, len(file.Publishers))}
	for i, cfg := range file.Publishers {
		cfg = cfg.normalized()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		seen[cfg.ID] = struct{}{}
		reg.publishers = append(reg.publishers, cfg)
	}
	return reg, nil
}

// Enabled returns the sinks to build, in file order. A missing enabled flag
// counts as enabled.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}
	var out []PublisherConfig
	for _, cfg := range r.publishers {
		if cfg.Enabled == nil || *cfg.Enabled {
			out = append(out, cfg)
		}
	}
	return out
}

// Accepts reports whether the publisher subscribes to events of resource.
func (cfg PublisherConfig) Accepts(resource string) bool {
	if len(cfg.Resources) == 0 {
		return true
	}
	resource = strings.ToLower(resource)
	for _, r := range cfg.Resources {
		if r == resource {
			return true
		}
	}
	return false
}

// normalized trims every field and applies the webhook defaults.
func (cfg PublisherConfig) normalized() PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	var resources []string
	for _, r := range cfg.Resources {
		if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
			resources = append(resources, r)
		}
	}
	cfg.Resources = resources

	if c := cfg.SQS; c != nil {
		cfg.SQS = &SQSPublisherConfig{
			QueueURL: strings.TrimSpace(c.QueueURL),
			Region:   strings.TrimSpace(c.Region),
			AWS:      c.AWS.trimmed(),
		}
	}
	if c := cfg.SNS; c != nil {
		cfg.SNS = &SNSPublisherConfig{
			TopicARN: strings.TrimSpace(c.TopicARN),
			Region:   strings.TrimSpace(c.Region),
			AWS:      c.AWS.trimmed(),
		}
	}
	if c := cfg.GCPPubSub; c != nil {
		cfg.GCPPubSub = &GCPPubSubPublisherConfig{
			ProjectID:       strings.TrimSpace(c.ProjectID),
			Topic:           strings.TrimSpace(c.Topic),
			CredentialsFile: strings.TrimSpace(c.CredentialsFile),
			Endpoint:        strings.TrimSpace(c.Endpoint),
		}
	}
	if c := cfg.HTTP; c != nil {
		hook := HTTPPublisherConfig{
			URL:            strings.TrimSpace(c.URL),
			Method:         strings.ToUpper(strings.TrimSpace(c.Method)),
			TimeoutSeconds: c.TimeoutSeconds,
		}
		if hook.Method == "" {
			hook.Method = http.MethodPost
		}
		if hook.TimeoutSeconds <= 0 {
			hook.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		for k, v := range c.Headers {
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if k == "" || v == "" {
				continue
			}
			if hook.Headers == nil {
				hook.Headers = make(map[string]string, len(c.Headers))
			}
			hook.Headers[k] = v
		}
		cfg.HTTP = &hook
	}
	return cfg
}

func (c AWSCredentials) trimmed() AWSCredentials {
	return AWSCredentials{
		AccessKeyID:     strings.TrimSpace(c.AccessKeyID),
		SecretAccessKey: strings.TrimSpace(c.SecretAccessKey),
		Endpoint:        strings.TrimSpace(c.Endpoint),
	}
}

// validate checks that the block for cfg.Type carries its required fields.
func (cfg PublisherConfig) validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}

	var required map[string]string
	switch cfg.Type {
	case "":
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	case TypeSQS:
		if cfg.SQS == nil {
			return fmt.Errorf("sqs config required for publisher %q", cfg.ID)
		}
		required = map[string]string{"sqs.uri": cfg.SQS.QueueURL, "sqs.region": cfg.SQS.Region}
	case TypeSNS:
		if cfg.SNS == nil {
			return fmt.Errorf("sns config required for publisher %q", cfg.ID)
		}
		required = map[string]string{"sns.topic_arn": cfg.SNS.TopicARN, "sns.region": cfg.SNS.Region}
	case TypeGCPPubSub:
		if cfg.GCPPubSub == nil {
			return fmt.Errorf("gcp_pubsub config required for publisher %q", cfg.ID)
		}
		required = map[string]string{"gcp_pubsub.project_id": cfg.GCPPubSub.ProjectID, "gcp_pubsub.topic": cfg.GCPPubSub.Topic}
	case TypeHTTP:
		if cfg.HTTP == nil {
			return fmt.Errorf("http config required for publisher %q", cfg.ID)
		}
		required = map[string]string{"http.url": cfg.HTTP.URL}
	}

	var missing []string
	for field, v := range required {
		if v == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("%s required for publisher %q", strings.Join(missing, ", "), cfg.ID)
	}
	return nil
}

