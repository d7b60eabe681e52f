package journal

const queryCreateTable = `
CREATE TABLE IF NOT EXISTS lifecycle_events (
    id          UUID PRIMARY KEY,
    kind        TEXT NOT NULL,
    entity_key  TEXT NOT NULL,
    status      TEXT NOT NULL,
    error       TEXT,
    aux_id      BIGINT,
    reported_at TIMESTAMPTZ,
    recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS lifecycle_events_entity_key_idx
    ON lifecycle_events (entity_key, recorded_at DESC);
`

const queryInsertEvent = `
INSERT INTO lifecycle_events (id, kind, entity_key, status, error, aux_id, reported_at, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

const queryListByKey = `
SELECT id, kind, entity_key, status, error, aux_id, reported_at, recorded_at
FROM lifecycle_events
WHERE entity_key = $1
ORDER BY recorded_at DESC
LIMIT $2 OFFSET $3
`
