package sqlinline

const QEnsureBannersTable = `--sql fed9cfb1-8a4c-469f-9ade-e2ee9c1dd679
create table if not exists banners (
  id             uuid primary key,
  wallet_address text not null default '',
  token_name     text not null,
  ticker         text not null default '',
  style          text not null,
  output_type    text not null,
  recipe_id      text not null,
  seed           integer not null,
  prompt         text not null,
  image_url      text not null,
  storage_key    text not null default '',
  provider       text not null default '',
  country        text not null default '',
  created_at     timestamptz not null default now()
);
create index if not exists banners_wallet_created_idx on banners (wallet_address, created_at desc);`

const QInsertBanner = `--sql 23a81e0a-066c-4b36-8076-2fa0c969801f
insert into banners (
  id, wallet_address, token_name, ticker, style, output_type, recipe_id,
  seed, prompt, image_url, storage_key, provider, country, created_at
)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
on conflict (id) do nothing`

const QListBannersByWallet = `--sql 50b2469a-94e4-466f-9bc5-721e0301ffa5
select id, wallet_address, token_name, ticker, style, output_type, recipe_id,
       seed, prompt, image_url, storage_key, provider, country, created_at
from banners
where wallet_address = $1
order by created_at desc
limit $2`

const QCountBannersByWallet = `--sql 531dc8ef-3534-46ca-baf6-cee8f88113e5
select count(*) from banners where wallet_address = $1`
