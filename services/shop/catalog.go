package shop

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/MarcGrol/smartshop/lib/myerrors"
	"github.com/MarcGrol/smartshop/lib/mylog"
	"github.com/MarcGrol/smartshop/services/shop/shopmodel"
)

// ReadCatalog parses lines of the form "uid;name;price;stock", price in minor units.
// Lines starting with '#' are ignored.
func ReadCatalog(reader io.Reader) ([]shopmodel.Product, error) {
	products := []shopmodel.Product{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = ';'
	csvReader.Comment = '#'
	csvReader.FieldsPerRecord = 4
	csvReader.TrimLeadingSpace = true

	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, myerrors.NewInvalidInputError(err)
		}

		price, err := strconv.ParseInt(record[2], 10, 64)
		if err != nil {
			return nil, myerrors.NewInvalidInputErrorf("invalid price '%s' of %s: %s", record[2], record[0], err)
		}
		stock, err := strconv.Atoi(record[3])
		if err != nil {
			return nil, myerrors.NewInvalidInputErrorf("invalid stock '%s' of %s: %s", record[3], record[0], err)
		}

		product, err := shopmodel.NewProduct(record[0], record[1], price, stock)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}

	return products, nil
}

// ImportCatalog adds the products of a catalog file that are not yet known. Existing products
// keep their stock.
func (s *webService) ImportCatalog(c context.Context, filename string) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("error opening catalog %s: %w", filename, err)
	}
	defer file.Close()

	products, err := ReadCatalog(file)
	if err != nil {
		return 0, fmt.Errorf("error reading catalog %s: %w", filename, err)
	}

	return s.service.importProducts(c, products)
}

func (s *service) importProducts(c context.Context, products []shopmodel.Product) (int, error) {
	imported := 0
	err := s.productStore.RunInTransaction(c, func(c context.Context) error {
		imported = 0
		for _, p := range products {
			_, exists, err := s.productStore.Get(c, p.UID)
			if err != nil {
				return myerrors.NewInternalError(err)
			}
			if exists {
				continue
			}
			err = s.productStore.Put(c, p.UID, p)
			if err != nil {
				return myerrors.NewInternalError(err)
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Log(c, "", mylog.SeverityInfo, "Imported %d of %d catalog products", imported, len(products))

	return imported, nil
}
