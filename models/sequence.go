package models

// Sequence ist eine Kette (Chain) eines PDB-Eintrags aus pdb_seqres.txt.
// Zusammengesetzter Schlüssel: (IDCode, Chain) — pro Eintrag höchstens eine
// Sequenz je Kette.
type Sequence struct {
	IDCode   string `json:"id_code" gorm:"primaryKey;size:4"`
	Chain    string `json:"chain" gorm:"primaryKey;size:5"`
	Sequence string `json:"sequence" gorm:"type:text"`
	Header   string `json:"header" gorm:"type:text"` // Header-Zeile ohne führendes '>'
}

// TableName gibt explizit den Tabellennamen an.
func (Sequence) TableName() string {
	return "sequences"
}
