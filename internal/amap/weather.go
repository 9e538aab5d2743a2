package amap

import "github.com/address-completer/app/models"

// buildWeatherSnapshot converts the provider payload; nil when it has neither
// live data nor a forecast.
func buildWeatherSnapshot(resp weatherResponse) *models.WeatherSnapshot {
	snapshot := &models.WeatherSnapshot{}

	if len(resp.Lives) > 0 {
		live := resp.Lives[0]
		snapshot.Current = &models.CurrentWeather{
			Weather:     weatherDesc(live.Weather),
			Temperature: live.Temperature.String() + "℃",
			Wind: models.Wind{
				Direction: describeWindDirection(live.WindDirection.String()),
				Power:     describeWindPower(live.WindPower.String()),
			},
			Humidity:   live.Humidity.String() + "%",
			ReportTime: live.ReportTime.String(),
		}
	}

	if len(resp.Forecasts) > 0 {
		for _, cast := range resp.Forecasts[0].Casts {
			snapshot.Forecast = append(snapshot.Forecast, models.DailyForecast{
				Date: cast.Date.String(),
				Week: cast.Week.String(),
				Day: models.HalfDayForecast{
					Weather:     weatherDesc(cast.DayWeather),
					Temperature: cast.DayTemp.String() + "℃",
					Wind: models.Wind{
						Direction: describeWindDirection(cast.DayWind.String()),
						Power:     describeWindPower(cast.DayPower.String()),
					},
				},
				Night: models.HalfDayForecast{
					Weather:     weatherDesc(cast.NightWeather),
					Temperature: cast.NightTemp.String() + "℃",
					Wind: models.Wind{
						Direction: describeWindDirection(cast.NightWind.String()),
						Power:     describeWindPower(cast.NightPower.String()),
					},
				},
			})
		}
	}

	if snapshot.IsEmpty() {
		return nil
	}
	return snapshot
}

func weatherDesc(code FlexString) models.WeatherDesc {
	return models.WeatherDesc{Code: code.String(), Desc: describeWeather(code.String())}
}
