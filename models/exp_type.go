package models

// ExpType ist die experimentelle Methode eines Eintrags (z.B. "X-RAY
// DIFFRACTION"). Die Zuordnung zur ExpClass kommt erst in der
// Klassifikationsphase aus pdb_entry_type.txt.
type ExpType struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"uniqueIndex;size:255;not null"`
	ExpClassID *uint     `json:"exp_class_id,omitempty"`
	ExpClass   *ExpClass `json:"exp_class,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (ExpType) TableName() string {
	return "exp_types"
}
