package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/stocktrend/internal/domain/models"
)

const inventoryCSV = `Category,Model,In,Out,Closing Balance,Opening Balance
A,X1,10,2,28,20
A,X2,0,8,2,10
`

func TestLoadCSV(t *testing.T) {
	ds, err := Load(strings.NewReader(inventoryCSV), "stock.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, ds.Len())
	assert.True(t, ds.Validate().Valid)

	items, skipped, err := ds.Items()
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.Equal(t, []models.StockItem{
		{Row: 0, Category: "A", Model: "X1", In: 10, Out: 2, ClosingBalance: 28, OpeningBalance: 20},
		{Row: 1, Category: "A", Model: "X2", In: 0, Out: 8, ClosingBalance: 2, OpeningBalance: 10},
	}, items)
}

func TestLoadCSVNormalizesHeader(t *testing.T) {
	data := "\ufeff Category ,Model,  In,Out ,Closing Balance,Opening Balance \nA,X1, 1 ,2,3,4\n"

	ds, err := FromCSV(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"Category", "Model", "In", "Out", "Closing Balance", "Opening Balance"}, ds.Columns())
	items, _, err := ds.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1.0, items[0].In)
}

func TestLoadCSVSkipsBlankAndPadsShortRows(t *testing.T) {
	data := "Category,Model,In,Out,Closing Balance,Opening Balance,Notes\n" +
		"A,X1,1,2,3,4\n" +
		",,,,,,\n" +
		"\n" +
		"B,X2,5,6,7,8,late\n"

	ds, err := FromCSV(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())

	preview := ds.Preview(5)
	require.Len(t, preview, 2)
	assert.Equal(t, "", preview[0]["Notes"])
	assert.Equal(t, "late", preview[1]["Notes"])
	assert.Equal(t, "X2", preview[1]["Model"])
}

func TestItemsSkipsUnparsableNumbers(t *testing.T) {
	data := "Category,Model,In,Out,Closing Balance,Opening Balance\n" +
		"A,X1,1,2,3,4\n" +
		"A,X2,one,2,3,4\n" +
		"A,X3,1,2,,4\n" +
		"A,X4,1.5,2,3,4\n"

	ds, err := FromCSV(strings.NewReader(data))
	require.NoError(t, err)

	items, skipped, err := ds.Items()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "X1", items[0].Model)
	assert.Equal(t, "X4", items[1].Model)
	assert.Equal(t, 3, items[1].Row)

	assert.Equal(t, []SkippedRow{
		{Row: 1, Column: "In", Value: "one"},
		{Row: 2, Column: "Closing Balance", Value: ""},
	}, skipped)
}

func TestHeaderOnlyDataset(t *testing.T) {
	ds, err := FromCSV(strings.NewReader("Category,Model,In,Out,Closing Balance,Opening Balance\n"))
	require.NoError(t, err)

	assert.Equal(t, 0, ds.Len())
	assert.Nil(t, ds.Preview(5))

	items, skipped, err := ds.Items()
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, skipped)
}

func TestItemsRequiresValidSchema(t *testing.T) {
	ds, err := FromCSV(strings.NewReader("Category,Model\nA,X1\n"))
	require.NoError(t, err)

	result := ds.Validate()
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"In", "Out", "Closing Balance", "Opening Balance"}, result.Missing)

	_, _, err = ds.Items()
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestLoadRejectsEmptyAndUnknownFiles(t *testing.T) {
	_, err := Load(strings.NewReader(""), "stock.csv")
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = Load(strings.NewReader(inventoryCSV), "stock.json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(strings.NewReader(inventoryCSV), "stock")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestUniqueColumns(t *testing.T) {
	got := uniqueColumns([]string{"Model", "", "Model", "In", "Model"})

	assert.Equal(t, []string{"Model", "Unnamed: 1", "Model.1", "In", "Model.2"}, got)

	got = uniqueColumns([]string{"Notes", "Notes", "Notes.1", "Model.1", "Model", "Model", "", "Unnamed: 6"})

	assert.Equal(t, []string{"Notes", "Notes.1", "Notes.1.1", "Model.1", "Model", "Model.2", "Unnamed: 6", "Unnamed: 6.1"}, got)
}

func TestLoadCSVSuffixedHeaderCollidesWithRealHeader(t *testing.T) {
	data := "Category,Model,In,Out,Closing Balance,Opening Balance,Notes,Notes,Notes.1\n" +
		"A,X1,1,2,3,4,a,b,c\n"

	ds, err := FromCSV(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"Category", "Model", "In", "Out", "Closing Balance", "Opening Balance", "Notes", "Notes.1", "Notes.1.1"}, ds.Columns())
	assert.True(t, ds.Validate().Valid)

	preview := ds.Preview(5)
	require.Len(t, preview, 1)
	assert.Equal(t, "a", preview[0]["Notes"])
	assert.Equal(t, "b", preview[0]["Notes.1"])
	assert.Equal(t, "c", preview[0]["Notes.1.1"])

	items, skipped, err := ds.Items()
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, items, 1)
	assert.Equal(t, 4.0, items[0].OpeningBalance)
}

func TestLoadXLSX(t *testing.T) {
	book := excelize.NewFile()
	defer func() { _ = book.Close() }()

	require.NoError(t, book.SetSheetRow("Sheet1", "A1", &[]interface{}{"Category", "Model", "In", "Out", "Closing Balance ", "Opening Balance"}))
	require.NoError(t, book.SetSheetRow("Sheet1", "A2", &[]interface{}{"Laptop", "X1", 10, 2, 28, 20}))
	require.NoError(t, book.SetSheetRow("Sheet1", "A3", &[]interface{}{"Laptop", "X2", 0, 8, 2.5, 10}))

	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	ds, err := Load(bytes.NewReader(buf.Bytes()), "Inventory.XLSX")
	require.NoError(t, err)
	assert.True(t, ds.Validate().Valid)

	items, skipped, err := ds.Items()
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, items, 2)
	assert.Equal(t, "X2", items[1].Model)
	assert.Equal(t, 2.5, items[1].ClosingBalance)
	assert.Equal(t, 8.0, items[1].Out)
}

func TestFromValues(t *testing.T) {
	values := [][]interface{}{
		{},
		{"Category", "Model", "In", "Out", "Closing Balance", "Opening Balance"},
		{"A", "X1", float64(10), float64(2), float64(28), float64(20)},
		{"A", "X2", "0", nil, float64(2), float64(10)},
	}

	ds, err := FromValues(values)
	require.NoError(t, err)

	items, skipped, err := ds.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 28.0, items[0].ClosingBalance)
	require.Len(t, skipped, 1)
	assert.Equal(t, "Out", skipped[0].Column)
}
