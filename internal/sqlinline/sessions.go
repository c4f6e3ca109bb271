package sqlinline

const QUpsertSession = `--sql 977303f7-48f1-438b-8ac4-06c9e851c1ab
insert into sessions (id, user_id, data, expires_at, created_at, updated_at)
values ($1, nullif($2, '')::uuid, $3, $4, now(), now())
on conflict (id) do update set
    user_id = excluded.user_id,
    data = excluded.data,
    expires_at = excluded.expires_at,
    updated_at = now();
`

const QSelectSession = `--sql 4a04a006-ddc4-46d3-8a61-74780bee3742
select data, expires_at
from sessions
where id = $1
  and expires_at > now()
limit 1;
`

const QDeleteSession = `--sql 6785f0fb-e970-44e2-9a7b-69c5d45bfd40
delete from sessions
where id = $1;
`

const QDeleteExpiredSessions = `--sql a84d08db-6a25-48cd-8dbd-502af82d2bc7
delete from sessions
where expires_at <= now();
`
