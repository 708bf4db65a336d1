package models

// Setting is one row of the site configuration table. Keys are listed in
// constants; values are stored as text and parsed by site.SettingsFromMap.
type Setting struct {
	Key   string `gorm:"primaryKey;type:varchar(255)"`
	Value string `gorm:"type:text;not null"`
}
