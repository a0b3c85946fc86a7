package models

// CompType ist der Verbindungstyp eines Eintrags (kurzer Code wie "prot"
// oder "nuc") aus pdb_entry_type.txt.
type CompType struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;size:10;not null"`
}

// TableName gibt explizit den Tabellennamen an.
func (CompType) TableName() string {
	return "comp_types"
}
