// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "CalorieTrack-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/calorietrack.log")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.host", "0.0.0.0")
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.log.enabled", true)
	viper.SetDefault("webserver.log.path", "logs/web.log")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "predictions.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "calorietrack")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "calorietrack")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("broadcast.queuesize", 16)

	viper.SetDefault("query.defaultlimit", 100)
	viper.SetDefault("query.maxlimit", 1000)
	viper.SetDefault("query.cachettl", 30)
}
