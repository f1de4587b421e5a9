package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- SERIES TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS series SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS title ON series TYPE string;
    DEFINE FIELD IF NOT EXISTS tagline ON series TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS genre ON series TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS status ON series TYPE string
        ASSERT $value IN ["planning", "in_production", "completed"];
    DEFINE FIELD IF NOT EXISTS planned_seasons ON series TYPE int ASSERT $value >= 1;
    DEFINE FIELD IF NOT EXISTS episodes_per_season ON series TYPE int ASSERT $value >= 1;
    DEFINE FIELD IF NOT EXISTS full_lore ON series TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS visual_style ON series TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS script_style ON series TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS main_characters ON series TYPE array<object> FLEXIBLE DEFAULT [];
    DEFINE FIELD IF NOT EXISTS main_characters.* ON series TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created ON series TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS series_created ON series FIELDS created;

    -- ==========================================================================
    -- EPISODE TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS episode SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS series ON episode TYPE record<series>;
    DEFINE FIELD IF NOT EXISTS season ON episode TYPE int ASSERT $value >= 1;
    DEFINE FIELD IF NOT EXISTS number ON episode TYPE int ASSERT $value >= 1;
    DEFINE FIELD IF NOT EXISTS status ON episode TYPE string
        ASSERT $value IN ["pending", "generating", "ready", "failed"];
    DEFINE FIELD IF NOT EXISTS title ON episode TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS synopsis ON episode TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS script ON episode TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS error ON episode TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON episode TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated ON episode TYPE datetime DEFAULT time::now();

    -- One episode per (series, season, number) slot
    DEFINE INDEX IF NOT EXISTS episode_slot ON episode FIELDS series, season, number UNIQUE;

    -- ==========================================================================
    -- STORY TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS story SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS title ON story TYPE string;
    DEFINE FIELD IF NOT EXISTS premise ON story TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS genre ON story TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS status ON story TYPE string DEFAULT "draft";
    DEFINE FIELD IF NOT EXISTS created ON story TYPE datetime DEFAULT time::now();
`
