package maxmind

import (
	"errors"
	"net"

	"facegate.io/infrastructure/ipresolver/types"
	"facegate.io/infrastructure/logger"
	"github.com/oschwald/maxminddb-golang"
)

var ErrInvalidIP = errors.New("invalid ip address")

type MaxMindIPResolver struct {
	db *maxminddb.Reader
}

func Open(path string) (*MaxMindIPResolver, error) {
	db, err := maxminddb.Open(path)
	if err != nil {
		logger.Error("could not connect to mmdb", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil, err
	}
	logger.Info("connected to maxmind db successfully")
	return &MaxMindIPResolver{db: db}, nil
}

func (mmResolver *MaxMindIPResolver) Close() error {
	return mmResolver.db.Close()
}

type maxmindLookupResult struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Location struct {
		Longitude      float64 `maxminddb:"longitude"`
		Latitude       float64 `maxminddb:"latitude"`
		AccuracyRadius int     `maxminddb:"accuracy_radius"`
	} `maxminddb:"location"`
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

func (mmResolver *MaxMindIPResolver) LookUp(ipAddress string) (*types.IPResult, error) {
	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return nil, ErrInvalidIP
	}
	var result maxmindLookupResult
	err := mmResolver.db.Lookup(ip, &result)
	if err != nil {
		return nil, err
	}
	return &types.IPResult{
		Longitude:      result.Location.Longitude,
		Latitude:       result.Location.Latitude,
		City:           result.City.Names["en"],
		CountryCode:    result.Country.ISOCode,
		AccuracyRadius: result.Location.AccuracyRadius,
		IPAddress:      ipAddress,
	}, nil
}
