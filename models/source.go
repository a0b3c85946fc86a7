package models

// Source repräsentiert einen Organismus, aus dem eine Struktur stammt.
// Der Organismus-String ist der natürliche Schlüssel.
type Source struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;size:255;not null"`

	Entries []Entry `json:"entries,omitempty" gorm:"many2many:entry_has_source"`
}

// TableName gibt explizit den Tabellennamen an.
func (Source) TableName() string {
	return "sources"
}
