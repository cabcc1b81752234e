package providers

import "time"

// shutdownTimeout bounds graceful shutdown for long-running components.
const shutdownTimeout = 30 * time.Second
