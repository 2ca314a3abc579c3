package configuration

import "github.com/adampresley/configinator"

type Config struct {
	AccessCodeHash     string `flag:"accesscodehash" env:"ACCESS_CODE_HASH" default:"" description:"bcrypt hash of the code viewers must enter to open the library. Empty grants access to everyone"`
	AllowDelete        bool   `flag:"allowdelete" env:"ALLOW_DELETE" default:"false" description:"Allow viewers to delete photos"`
	AwsEndpointUrl     string `flag:"awsep" env:"AWS_ENDPOINT_URL" default:"http://localhost:4566" description:"AWS endpoint URL"`
	AwsRegion          string `flag:"awsregion" env:"AWS_REGION" default:"us-central-1" description:"AWS region"`
	AwsAccessKeyId     string `flag:"awsaccesskeyid" env:"AWS_ACCESS_KEY_ID" default:"" description:"AWS access key ID"`
	AwsSecretAccessKey string `flag:"awssecretaccesskey" env:"AWS_SECRET_ACCESS_KEY" default:"" description:"AWS secret access key"`
	AwsBucket          string `flag:"awsbucket" env:"AWS_BUCKET" default:"randomgallery" description:"S3 bucket holding photos when source is s3"`
	AwsPrefix          string `flag:"awsprefix" env:"AWS_PREFIX" default:"photos" description:"S3 folder holding photos when source is s3"`
	CookieSecret       string `flag:"cookiesecret" env:"COOKIE_SECRET" default:"password" description:"Secret for encoding cookies"`
	DSN                string `flag:"dsn" env:"DSN" default:"file:./data/randomgallery.db" description:"Data source name for the media index"`
	Host               string `flag:"host" env:"HOST" default:"localhost:8081" description:"The address and port to bind the HTTP server to"`
	IndexInterval      int    `flag:"indexinterval" env:"INDEX_INTERVAL_MINUTES" default:"60" description:"Minutes between full library re-index runs"`
	LibraryRoot        string `flag:"libraryroot" env:"LIBRARY_ROOT" default:"./photos" description:"Directory holding photos when source is filesystem"`
	LogLevel           string `flag:"loglevel" env:"LOG_LEVEL" default:"debug" description:"The log level to use. Valid values are 'debug', 'info', 'warn', and 'error'"`
	MaxDecodePixels    int    `flag:"maxdecodepixels" env:"MAX_DECODE_PIXELS" default:"100000000" description:"Largest image, in total pixels, the viewer will decode"`
	MaxDisplayEdge     int    `flag:"maxdisplayedge" env:"MAX_DISPLAY_EDGE" default:"2048" description:"Longest edge in pixels of the image sent to the browser"`
	MaxIndexWorkers    int    `flag:"miw" env:"MAX_INDEX_WORKERS" default:"8" description:"Maximum number of concurrent indexing workers"`
	Source             string `flag:"source" env:"SOURCE" default:"filesystem" description:"Where photos live. Valid values are 'filesystem' and 's3'"`
	WatchLibrary       bool   `flag:"watch" env:"WATCH_LIBRARY" default:"true" description:"Re-index when the library directory changes (filesystem source only)"`
}

func LoadConfig() Config {
	config := Config{}
	configinator.Behold(&config)
	return config
}
