package favourite

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
	"github.com/SlpAus/pokedex-cache-backend/internal/pokemon"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 把全局DB替换为测试私有的SQLite库。
// migrate=false 时故意不建表，用来模拟存储自身的失败。
func setupTestDB(t *testing.T, migrate bool) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "cache.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	if migrate {
		require.NoError(t, db.AutoMigrate(&pokemon.Pokemon{}, &pokemon.Variety{}))
	}
	database.DB = db
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PUT("/api/pokemon/:key/favourite", SetFavouriteHandler)
	r.PUT("/api/pokemon/:key/assets", SetAssetPathHandler)
	r.PUT("/api/varieties/:name/artwork", SetVarietyArtworkHandler)
	return r
}

func doPut(t *testing.T, r *gin.Engine, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, url, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSetFavouriteHandlerUpdatesExistingRow(t *testing.T) {
	setupTestDB(t, true)
	require.NoError(t, database.DB.Create(&pokemon.Pokemon{
		PokemonID: 25, Name: "pikachu", Stats: datatypes.JSON("{}"),
	}).Error)
	r := newTestRouter()

	w := doPut(t, r, "/api/pokemon/pikachu/favourite", `{"value":true}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var row pokemon.Pokemon
	require.NoError(t, database.DB.Where("name = ?", "pikachu").First(&row).Error)
	assert.True(t, row.IsFavourite)
}

func TestSetFavouriteHandlerMissingRowIs404(t *testing.T) {
	setupTestDB(t, true)
	r := newTestRouter()

	w := doPut(t, r, "/api/pokemon/missingno/favourite", `{"value":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// 表还没建时更新会在存储层失败，这不是"记录不存在"，要报500。
func TestSetFavouriteHandlerStoreFailureIs500(t *testing.T) {
	setupTestDB(t, false)
	r := newTestRouter()

	w := doPut(t, r, "/api/pokemon/pikachu/favourite", `{"value":true}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSetAssetPathHandlerStatusMapping(t *testing.T) {
	setupTestDB(t, true)
	require.NoError(t, database.DB.Create(&pokemon.Pokemon{
		PokemonID: 25, Name: "pikachu", Stats: datatypes.JSON("{}"),
	}).Error)
	r := newTestRouter()

	w := doPut(t, r, "/api/pokemon/pikachu/assets", `{"kind":"sprite","path":"/data/sprites/pikachu.png"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doPut(t, r, "/api/pokemon/missingno/assets", `{"kind":"cry","path":"/data/cries/x.ogg"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doPut(t, r, "/api/pokemon/pikachu/assets", `{"kind":"hologram","path":"/x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetVarietyArtworkHandlerMissingRowIs404(t *testing.T) {
	setupTestDB(t, true)
	r := newTestRouter()

	w := doPut(t, r, "/api/varieties/pikachu-gmax/artwork", `{"path":"/data/art/g.png"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
