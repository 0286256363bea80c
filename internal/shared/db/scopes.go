package db

import (
	"gorm.io/gorm"

	"github.com/keygate-inc/keygate/internal/shared/constants"
)

// LicensesOfBrand restricts a query on licenses to those whose key belongs to brandID.
//
// Example usage:
//
//	db.Model(&models.LicenseModel{}).Scopes(db.LicensesOfBrand(brandID)).Where("licenses.id = ?", id)
func LicensesOfBrand(brandID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN "+constants.TableLicenseKeys+" ON "+constants.TableLicenseKeys+".id = "+constants.TableLicenses+".license_key_id").
			Where(constants.TableLicenseKeys+".brand_id = ?", brandID)
	}
}

// ActivationsOfBrand restricts a query on activations to those reachable from brandID.
func ActivationsOfBrand(brandID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN "+constants.TableLicenses+" ON "+constants.TableLicenses+".id = "+constants.TableActivations+".license_id").
			Scopes(LicensesOfBrand(brandID))
	}
}

// ActiveOnly filters activations to the ones holding a seat.
func ActiveOnly() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(constants.TableActivations + ".active = ?", true)
	}
}
