/*
Package store reads the authoritative "latest telemetry per device" snapshot
from the relational backing store.

The ingestion path (MQTT bridge, out of process) upserts one row per device
into devices_data; descriptive properties live in devices_prop, placed via
locations into faculties. This package only ever reads those tables. Each
FetchSnapshot call issues exactly one join query and reflects the database at
call time — the only caching in the system is the broadcaster holding its last
poll between ticks, which is not this package's concern.

# Join Variants

Two call sites need two different join semantics, and the asymmetry is
deliberate:

  - JoinInner: devices_data INNER JOIN devices_prop. A telemetry row without a
    matching properties row disappears. Used by the grouped-by-faculty views,
    where a device with no name and no faculty has nowhere to be displayed.
  - JoinLeft: the same query with a LEFT JOIN. Orphaned telemetry rows appear
    with nil descriptive fields. Used by the flat device listing, which must
    account for every device that ever reported.

# Numeric Parsing

Telemetry readings come back as nullable text and are parsed here: null, empty,
and non-numeric all yield nil, while "0" yields a real zero reading. Dashboards
rely on that distinction to render "no data" instead of a flat zero line.

# Grouping

GroupByFaculty is a pure function over a fetched snapshot list producing
faculty -> device key -> snapshot, keyed by display name when present and
device ID otherwise, with deterministic suffix disambiguation for duplicate
display names.

Connect/Close wrap GORM with the postgres, mysql, and sqlite drivers; the
driver is chosen by configuration. Tests run against in-memory sqlite with the
same query text, which is why the query avoids driver-specific SQL.
*/
package store
