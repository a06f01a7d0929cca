package shop

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/smartshop/lib/myerrors"
	"github.com/MarcGrol/smartshop/services/shop/shopmodel"
)

const exampleCatalog = `# uid;name;price;stock
p1;Laptop;1000000;2
p2; Mouse;2500;10
`

func TestReadCatalog(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		products, err := ReadCatalog(strings.NewReader(exampleCatalog))

		assert.NoError(t, err)
		assert.Equal(t, []shopmodel.Product{
			{UID: "p1", Name: "Laptop", Price: 1000000, Currency: "UGX", StockQuantity: 2},
			{UID: "p2", Name: "Mouse", Price: 2500, Currency: "UGX", StockQuantity: 10},
		}, products)
	})

	t.Run("invalid price", func(t *testing.T) {
		_, err := ReadCatalog(strings.NewReader("p1;Laptop;cheap;2\n"))
		assert.True(t, myerrors.IsInvalidInput(err))
	})

	t.Run("missing field", func(t *testing.T) {
		_, err := ReadCatalog(strings.NewReader("p1;Laptop;2\n"))
		assert.True(t, myerrors.IsInvalidInput(err))
	})

	t.Run("negative stock", func(t *testing.T) {
		_, err := ReadCatalog(strings.NewReader("p1;Laptop;100;-1\n"))
		assert.True(t, myerrors.IsInvalidInput(err))
	})
}

func TestImportCatalog(t *testing.T) {
	ctrl := gomock.NewController(t)

	// setup
	tc := newTestContext(t, ctrl)
	sut := &webService{service: tc.service()}
	filename := filepath.Join(t.TempDir(), "catalog.csv")
	assert.NoError(t, os.WriteFile(filename, []byte(exampleCatalog), 0o600))

	// given
	tc.givenProduct(t, "p1", "Laptop", 1000000, 0)

	// when
	imported, err := sut.ImportCatalog(tc.c, filename)

	// then
	assert.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 0, tc.stockOf(t, "p1"))
	assert.Equal(t, 10, tc.stockOf(t, "p2"))
}
