package models

// ExpClass ist die grobe Kategorie einer experimentellen Methode
// (z.B. "diffraction"). Jeder ExpType gehört zu genau einer Klasse.
type ExpClass struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;size:255;not null"`

	ExpTypes []ExpType `json:"exp_types,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (ExpClass) TableName() string {
	return "exp_classes"
}
