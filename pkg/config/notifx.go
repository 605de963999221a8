package config

import "github.com/spf13/viper"

// NotifxConfig configures email and code delivery.
type NotifxConfig struct {
	// Provider is console or ses
	Provider    string
	FromAddress string
	FromName    string
	AWSRegion   string

	// ConfigurationSet is the optional SES configuration set
	ConfigurationSet string
}

func loadNotifxConfig(v *viper.Viper) NotifxConfig {
	v.SetDefault("NOTIFX_PROVIDER", "console")
	v.SetDefault("NOTIFX_FROM_ADDRESS", "noreply@flavormind.app")
	v.SetDefault("NOTIFX_FROM_NAME", "FlavorMind")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("NOTIFX_SES_CONFIGURATION_SET", "")

	return NotifxConfig{
		Provider:         v.GetString("NOTIFX_PROVIDER"),
		FromAddress:      v.GetString("NOTIFX_FROM_ADDRESS"),
		FromName:         v.GetString("NOTIFX_FROM_NAME"),
		AWSRegion:        v.GetString("AWS_REGION"),
		ConfigurationSet: v.GetString("NOTIFX_SES_CONFIGURATION_SET"),
	}
}

// From renders the sender as "Name <address>".
func (n NotifxConfig) From() string {
	if n.FromName == "" {
		return n.FromAddress
	}
	return n.FromName + " <" + n.FromAddress + ">"
}
