package models

// Author repräsentiert einen Autor eines PDB-Eintrags. Der Anzeigename ist
// der natürliche Schlüssel (exakter String-Vergleich, keine Normalisierung).
type Author struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;size:255;not null"`

	Entries []Entry `json:"entries,omitempty" gorm:"many2many:author_has_entry"`
}

// TableName gibt explizit den Tabellennamen an.
func (Author) TableName() string {
	return "authors"
}
