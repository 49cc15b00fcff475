package influxdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
)

const valueField = "value"

type Repository struct {
	client      influxdb2.Client
	writeAPI    api.WriteAPIBlocking
	queryAPI    api.QueryAPI
	org         string
	bucket      string
	measurement string
}

// NewRepository connects to InfluxDB and checks that it is healthy
func NewRepository(ctx context.Context, url, token, org, bucket, measurement string) (*Repository, error) {
	client := influxdb2.NewClient(url, token)

	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}
	if health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("InfluxDB is not healthy: %s", health.Status)
	}

	return &Repository{
		client:      client,
		writeAPI:    client.WriteAPIBlocking(org, bucket),
		queryAPI:    client.QueryAPI(org),
		org:         org,
		bucket:      bucket,
		measurement: measurement,
	}, nil
}

// Close closes the client
func (r *Repository) Close() {
	r.client.Close()
}

// StoreReadings writes readings as points tagged with sensor_id.
// Readings without a value have no field to write and are skipped; they are
// indistinguishable from missing minutes for health purposes.
func (r *Repository) StoreReadings(ctx context.Context, readings []models.Reading) (int, error) {
	points := make([]*write.Point, 0, len(readings))
	for _, reading := range readings {
		if !reading.Present() {
			continue
		}
		points = append(points, newPoint(r.measurement, reading))
	}
	if len(points) == 0 {
		return 0, nil
	}

	if err := r.writeAPI.WritePoint(ctx, points...); err != nil {
		return 0, fmt.Errorf("write failed: %w", err)
	}
	return len(points), nil
}

// FetchReadings returns the sensor's readings in [from, to)
func (r *Repository) FetchReadings(ctx context.Context, sensorID string, from, to time.Time) ([]models.Reading, error) {
	query := buildFluxQuery(&models.QueryParams{
		SensorID:  sensorID,
		StartTime: from,
		EndTime:   to,
	}, r.bucket, r.measurement)

	result, err := r.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer result.Close()

	var readings []models.Reading
	for result.Next() {
		record := result.Record()

		value, ok := toFloat(record.Value())
		reading := models.Reading{
			SensorID:  sensorID,
			Timestamp: record.Time(),
		}
		if ok {
			reading.Value = &value
		}
		readings = append(readings, reading)
	}

	if result.Err() != nil {
		return nil, fmt.Errorf("error parsing results: %w", result.Err())
	}

	return readings, nil
}

func newPoint(measurement string, reading models.Reading) *write.Point {
	p := influxdb2.NewPointWithMeasurement(measurement)
	p.SetTime(reading.Timestamp)
	p.AddTag("sensor_id", reading.SensorID)
	p.AddField(valueField, *reading.Value)
	return p
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// buildFluxQuery builds the Flux query for one sensor's raw values
func buildFluxQuery(params *models.QueryParams, bucket, measurement string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %s)\n", fluxString(bucket))
	fmt.Fprintf(&b, "  |> range(start: %s, stop: %s)\n",
		params.StartTime.UTC().Format(time.RFC3339), params.EndTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r._measurement == %s and r._field == %s)\n", fluxString(measurement), fluxString(valueField))
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r.sensor_id == %s)\n", fluxString(params.SensorID))
	b.WriteString(`  |> sort(columns: ["_time"])`)
	return b.String()
}

var fluxEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "${", `\${`)

// fluxString quotes s as a Flux string literal. Backslashes, quotes and
// interpolation openers are escaped; everything else is literal.
func fluxString(s string) string {
	return `"` + fluxEscaper.Replace(s) + `"`
}
