package config

import "time"

// Config represents the structure of config.yml used by the tool.
// Every field has a default so the file itself is optional.
type Config struct {
	Sheets  Sheets  `yaml:"sheets"`
	Outages Outages `yaml:"outages"`
	PA      PA      `yaml:"pa"`
	Report  Report  `yaml:"report"`
	Web     Web     `yaml:"web"`
}

// Sheets names the workbook sheets. RNA and TCH are read but not used yet.
type Sheets struct {
	Outages   string `yaml:"outages"`
	Directory string `yaml:"directory"`
	PA        string `yaml:"pa"`
	RNA       string `yaml:"rna"`
	TCH       string `yaml:"tch"`
}

// Names lists every required sheet.
func (s Sheets) Names() []string {
	return []string{s.Outages, s.Directory, s.PA, s.RNA, s.TCH}
}

type Outages struct {
	// RetainYears keeps outages from the last N calendar years, the current
	// one included. 0 keeps everything.
	RetainYears int `yaml:"retain_years"`
}

type PA struct {
	SiteIDAliases []string `yaml:"site_id_aliases"`
	Placeholder   string   `yaml:"placeholder"`
}

type Report struct {
	// Zone scopes every view when set.
	Zone             string   `yaml:"zone"`
	Customers        []string `yaml:"customers"`
	ExcludedProjects []string `yaml:"excluded_projects"`
	Locale           string   `yaml:"locale"`
	TargetPA         float64  `yaml:"target_pa"`
}

type Web struct {
	Addr       string        `yaml:"addr"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	MaxUpload  int64         `yaml:"max_upload_bytes"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		Sheets: Sheets{Outages: "outages", Directory: "db", PA: "pa", RNA: "rna", TCH: "tch"},
		Outages: Outages{
			RetainYears: 1,
		},
		PA: PA{
			SiteIDAliases: []string{"Site ID"},
			Placeholder:   "-",
		},
		Report: Report{
			Customers:        []string{"MTN NG", "Airtel NG"},
			ExcludedProjects: []string{"GICL"},
			Locale:           "en_US",
			TargetPA:         100,
		},
		Web: Web{
			Addr:       ":8080",
			SessionTTL: 2 * time.Hour,
			MaxUpload:  64 << 20,
		},
	}
}
