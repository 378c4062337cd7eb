package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrey/stock-data-service/internal/models"
)

func TestCompanyRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	listDate := time.Date(1991, 4, 3, 0, 0, 0, 0, time.UTC)
	roster := []*models.Company{
		{TsCode: "000001.SZ", Symbol: "000001", Name: "平安银行", Area: "深圳", Industry: "银行", Market: "主板", ListDate: &listDate},
		{TsCode: "600519.SH", Symbol: "600519", Name: "贵州茅台", Area: "贵州", Industry: "白酒", Market: "主板"},
	}

	t.Run("UpsertCompanyBatch inserts roster", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.UpsertCompanyBatch(roster))

		companies, err := testDB.GetAllCompanies()
		require.NoError(t, err)
		assert.Len(t, companies, 2)
	})

	t.Run("UpsertCompanyBatch updates existing company", func(t *testing.T) {
		testDB.TruncateAll(t)
		require.NoError(t, testDB.UpsertCompanyBatch(roster))

		renamed := *roster[0]
		renamed.Industry = "金融"
		require.NoError(t, testDB.UpsertCompanyBatch([]*models.Company{&renamed}))

		got, err := testDB.GetCompany("000001.SZ")
		require.NoError(t, err)
		assert.Equal(t, "金融", got.Industry)

		companies, err := testDB.GetAllCompanies()
		require.NoError(t, err)
		assert.Len(t, companies, 2)
	})

	t.Run("GetCompany returns not found error", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.GetCompany("999999.SZ")
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("ListCompanyCodes filters by prefix", func(t *testing.T) {
		testDB.TruncateAll(t)
		require.NoError(t, testDB.UpsertCompanyBatch(roster))

		all, err := testDB.ListCompanyCodes("")
		require.NoError(t, err)
		assert.Equal(t, []string{"000001.SZ", "600519.SH"}, all)

		sz, err := testDB.ListCompanyCodes("000")
		require.NoError(t, err)
		assert.Equal(t, []string{"000001.SZ"}, sz)
	})

	t.Run("DeleteCompany removes row", func(t *testing.T) {
		testDB.TruncateAll(t)
		require.NoError(t, testDB.UpsertCompanyBatch(roster))

		require.NoError(t, testDB.DeleteCompany("000001.SZ"))
		_, err := testDB.GetCompany("000001.SZ")
		assert.Error(t, err)

		err = testDB.DeleteCompany("000001.SZ")
		assert.ErrorContains(t, err, "not found")
	})
}
