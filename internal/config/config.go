package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nerdneilsfield/mathguard/internal/textio"
	"github.com/nerdneilsfield/mathguard/pkg/llm"
	"github.com/nerdneilsfield/mathguard/pkg/mathguard"
	"github.com/nerdneilsfield/mathguard/pkg/transform"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	// 公式定界符
	Math        mathguard.Config `mapstructure:"math" yaml:"math"`
	Engine      string           `mapstructure:"engine" yaml:"engine"`
	Encoding    string           `mapstructure:"encoding" yaml:"encoding"`
	Concurrency int              `mapstructure:"concurrency" yaml:"concurrency"`
	Debug       bool             `mapstructure:"debug" yaml:"debug"`
	LogLevel    string           `mapstructure:"log_level" yaml:"log_level"`
	Page        PageConfig       `mapstructure:"page" yaml:"page"`
	LLM         LLMConfig        `mapstructure:"llm" yaml:"llm"`
}

// PageConfig 独立 HTML 页面配置
type PageConfig struct {
	Standalone bool   `mapstructure:"standalone" yaml:"standalone"`
	MathJaxURL string `mapstructure:"mathjax_url" yaml:"mathjax_url"`
	Lang       string `mapstructure:"lang" yaml:"lang"`
}

// LLMConfig 翻译模型配置
type LLMConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries" yaml:"max_retries"`
	SourceLang  string        `mapstructure:"source_lang" yaml:"source_lang"`
	TargetLang  string        `mapstructure:"target_lang" yaml:"target_lang"`
	// 为空时不缓存
	CacheFile string `mapstructure:"cache_file" yaml:"cache_file"`
}

// LoadConfig 加载配置：默认值 < 配置文件 < 环境变量（MATHGUARD_*）
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".mathguard")
		v.SetConfigType("yaml")
	}

	// 读取环境变量，math.inline_mark 对应 MATHGUARD_MATH_INLINE_MARK
	v.SetEnvPrefix("MATHGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 找不到配置文件时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if config.LLM.APIKey == "" {
		config.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return &config, nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("math.inline_mark", mathguard.DefaultConfig.InlineMark)
	v.SetDefault("math.display_mark", mathguard.DefaultConfig.DisplayMark)
	v.SetDefault("math.normalize_line_endings", false)
	v.SetDefault("engine", string(transform.EngineGoldmark))
	v.SetDefault("encoding", textio.AutoDetect)
	v.SetDefault("concurrency", 4)
	v.SetDefault("debug", false)
	v.SetDefault("log_level", "info")

	v.SetDefault("page.standalone", false)
	v.SetDefault("page.mathjax_url", transform.DefaultMathJaxURL)
	v.SetDefault("page.lang", "en")

	v.SetDefault("llm.provider", llm.ProviderOpenAI)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout", "120s")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.source_lang", "")
	v.SetDefault("llm.target_lang", "Chinese")
	v.SetDefault("llm.cache_file", "")
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	if err := c.Math.Validate(); err != nil {
		return err
	}
	if _, err := transform.ParseEngine(c.Engine); err != nil {
		return err
	}
	if _, err := textio.Decode(nil, c.Encoding); err != nil {
		return err
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	switch c.LLM.Provider {
	case llm.ProviderOpenAI, llm.ProviderGoOpenAI:
	default:
		return fmt.Errorf("%w: %q", llm.ErrUnknownProvider, c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be within [0, 2], got %v", c.LLM.Temperature)
	}
	return nil
}

// ClientConfig 转换为模型客户端配置
func (c *Config) ClientConfig() llm.ClientConfig {
	return llm.ClientConfig{
		Provider:    c.LLM.Provider,
		BaseURL:     c.LLM.BaseURL,
		APIKey:      c.LLM.APIKey,
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
		Timeout:     c.LLM.Timeout,
		MaxRetries:  c.LLM.MaxRetries,
	}
}
