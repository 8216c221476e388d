package mysql

const upsertPlaceSQL = `
INSERT INTO places
  (id, position, name, location, image, description, year_built, model_path,
   has_booking, booking_url, about, detailed_info, architect, materials)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  position      = VALUES(position),
  name          = VALUES(name),
  location      = VALUES(location),
  image         = VALUES(image),
  description   = VALUES(description),
  year_built    = VALUES(year_built),
  model_path    = VALUES(model_path),
  has_booking   = VALUES(has_booking),
  booking_url   = VALUES(booking_url),
  about         = VALUES(about),
  detailed_info = VALUES(detailed_info),
  architect     = VALUES(architect),
  materials     = VALUES(materials),
  updated_at    = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const placeColumns = `
  id, position, name, location, image, description, year_built, model_path,
  has_booking, booking_url, about, detailed_info, architect, materials
`

const getPlaceSQL = `SELECT` + placeColumns + `FROM places WHERE id = ?`

// Catalog order; aligns with idx_places_position.
const listPlacesSQL = `SELECT` + placeColumns + `FROM places ORDER BY position, id`
