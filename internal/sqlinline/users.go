package sqlinline

const QInsertUser = `--sql 77b31745-a93a-4e35-b466-7e0b4088cc6c
insert into users (id, name, email, password_hash, credits, created_at, updated_at)
values (gen_random_uuid(), $1, lower($2), $3, $4, now(), now())
returning id, name, email, coalesce(password_hash, ''), coalesce(google_sub, ''), coalesce(avatar_url, ''), credits, created_at, updated_at;
`

const QSelectUserByEmail = `--sql fc4a9b29-2463-4999-a30c-39960835235e
select id, name, email, coalesce(password_hash, ''), coalesce(google_sub, ''), coalesce(avatar_url, ''), credits, created_at, updated_at
from users
where email = lower($1)
limit 1;
`

const QSelectUserByID = `--sql 77bfb68b-cd03-431f-ba8e-cce6a17c2524
select id, name, email, coalesce(password_hash, ''), coalesce(google_sub, ''), coalesce(avatar_url, ''), credits, created_at, updated_at
from users
where id = $1::uuid
limit 1;
`

const QUpsertGoogleUser = `--sql c817f85d-733f-4d34-b9a7-337866a13ffe
insert into users (id, name, email, google_sub, avatar_url, credits, created_at, updated_at)
values (gen_random_uuid(), $1, lower($2), $3, nullif($4, ''), $5, now(), now())
on conflict (email) do update set
    google_sub = coalesce(users.google_sub, excluded.google_sub),
    avatar_url = coalesce(nullif(users.avatar_url, ''), excluded.avatar_url),
    updated_at = now()
returning id, name, email, coalesce(password_hash, ''), coalesce(google_sub, ''), coalesce(avatar_url, ''), credits, created_at, updated_at;
`

// QSpendCredit is the single storage operation that deducts one credit. The
// floor check lives inside the statement so two concurrent generations can
// never drive the balance negative.
const QSpendCredit = `--sql 4c33d4de-efb0-4952-b8b4-0f9b229db1fa
update users
set credits = credits - 1,
    updated_at = now()
where id = $1::uuid
  and credits >= 1
returning credits;
`

// QGrantCredits tops up a balance. Used by the ops CLI, not by request
// handling.
const QGrantCredits = `--sql 8f1f1a93-5b19-4a3f-9242-6a3b1c9a0d11
update users
set credits = credits + $2,
    updated_at = now()
where id = $1::uuid
returning id, email, credits;
`
