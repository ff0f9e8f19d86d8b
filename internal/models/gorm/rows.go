package gorm

// Row envelopes for the embedded-file store. The canonical Show/Staff JSON
// document lives in the doc column (schema-on-read); the remaining columns
// exist only for ordering and lookups.

type ShowRow struct {
	ID string `gorm:"column:id;primaryKey"`
	// autoUpdateTime is off: the column mirrors the document's epoch-ms
	// updatedAt, and gorm's tracking would stamp unix seconds over it.
	UpdatedAt int64  `gorm:"column:updated_at;index;autoUpdateTime:false"`
	Doc       string `gorm:"column:doc;type:text"`
}

// TableName specifies the table name for GORM
func (ShowRow) TableName() string {
	return "shows"
}

type ArchivedShowRow struct {
	ID         string `gorm:"column:id;primaryKey"`
	ArchivedAt int64  `gorm:"column:archived_at;index"`
	Doc        string `gorm:"column:doc;type:text"`
}

// TableName specifies the table name for GORM
func (ArchivedShowRow) TableName() string {
	return "archived_shows"
}

// StaffRow is a single-row table: id is always 1.
type StaffRow struct {
	ID  int    `gorm:"column:id;primaryKey"`
	Doc string `gorm:"column:doc;type:text"`
}

// TableName specifies the table name for GORM
func (StaffRow) TableName() string {
	return "staff"
}
