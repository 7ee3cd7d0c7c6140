package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(pgxPoolConns) }

var pgxPoolConns = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "pgx_pool_connections",
		Help: "Connections in the pgx pool by state.",
	},
	[]string{"state"}, // 'max', 'total', 'idle', 'acquired'
)

// SetPgxPoolStats publishes a pgxpool.Stat snapshot.
func SetPgxPoolStats(max, total, idle, acquired int32) {
	pgxPoolConns.WithLabelValues("max").Set(float64(max))
	pgxPoolConns.WithLabelValues("total").Set(float64(total))
	pgxPoolConns.WithLabelValues("idle").Set(float64(idle))
	pgxPoolConns.WithLabelValues("acquired").Set(float64(acquired))
}
