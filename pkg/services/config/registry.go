package config

import (
	"context"
	"fmt"

	"gopkg.in/ini.v1"
)

// Profile describes one audit target.
type Profile struct {
	Name                   string
	Host                   string
	Port                   int
	Instance               string
	Database               string
	User                   string
	Password               string
	TrustServerCertificate bool
}

// Registry exposes the connection profiles configured on this machine
// (one ini section per target server).
type Registry interface {
	GetProfiles(ctx context.Context) ([]Profile, error)
	GetProfile(ctx context.Context, name string) (Profile, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]Profile, error) {
	var profiles []Profile
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) == 0 {
			continue
		}
		profiles = append(profiles, profileFromSection(section))
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetProfile(_ context.Context, name string) (Profile, error) {
	if !cr.cfg.HasSection(name) {
		return Profile{}, fmt.Errorf("profile %s not found", name)
	}
	section := cr.cfg.Section(name)
	if len(section.Keys()) == 0 {
		return Profile{}, fmt.Errorf("profile %s not found", name)
	}
	return profileFromSection(section), nil
}

func profileFromSection(section *ini.Section) Profile {
	return Profile{
		Name:                   section.Name(),
		Host:                   section.Key("host").String(),
		Port:                   section.Key("port").MustInt(1433),
		Instance:               section.Key("instance").String(),
		Database:               section.Key("database").String(),
		User:                   section.Key("user").String(),
		Password:               section.Key("password").String(),
		TrustServerCertificate: section.Key("trust_server_certificate").MustBool(false),
	}
}
