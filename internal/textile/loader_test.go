package textile

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSV(t *testing.T) {
	table, err := Load(filepath.Join("testdata", "scorecard.csv"))
	require.NoError(t, err)
	assert.Equal(t, 10, table.Len())

	e, _, ok := table.Lookup("cotton")
	require.True(t, ok)
	assert.Equal(t, "Cotton", e.Name)
	assert.Equal(t, "Cotton", e.Category)
	assert.Equal(t, 55.0, e.Impact[AxisClimate])
	assert.Equal(t, 75.0, e.Impact[AxisWater])
	assert.Equal(t, []string{"GOTS", "OCS", "Fairtrade Cotton"}, e.Certifications)

	e, _, ok = table.Lookup("elastane")
	require.True(t, ok)
	assert.Empty(t, e.Certifications)
}

func TestLoadCSVRejectsBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,wrong\nCotton,1\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "columns")
}

func TestLoadCSVRejectsOutOfRangeScore(t *testing.T) {
	header := strings.Join(csvColumns, ",")
	row := "Cotton,Cotton,55,75,60,50,55,45,60,140,GOTS"
	path := filepath.Join(t.TempDir(), "range.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+"\n"+row+"\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	_, err := Load("scorecard.json")
	require.Error(t, err)
}

func TestLoadSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scorecard.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)

	axisCols := make([]string, len(Axes))
	for i, a := range Axes {
		axisCols[i] = fmt.Sprintf("%s REAL NOT NULL", a)
	}
	_, err = db.Exec(fmt.Sprintf(
		"CREATE TABLE materials (name TEXT PRIMARY KEY, category TEXT NOT NULL, %s)",
		strings.Join(axisCols, ", ")))
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE certifications (material TEXT, standard TEXT, rank INTEGER)")
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO materials VALUES ('Hemp','Hemp',25,20,30,30,25,25,45,40)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO materials VALUES ('Lyocell','MMCF',35,30,25,35,40,40,40,30)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO certifications VALUES ('Lyocell','FSC',1),('Lyocell','EU Ecolabel',2)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	e, _, ok := table.Lookup("Tencel")
	require.True(t, ok)
	assert.Equal(t, "Lyocell", e.Name)
	assert.Equal(t, []string{"FSC", "EU Ecolabel"}, e.Certifications)
	assert.Equal(t, 35.0, e.Impact[AxisClimate])
}

func TestLoadSQLiteMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
}
